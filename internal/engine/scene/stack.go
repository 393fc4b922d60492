package scene

import (
	"errors"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// ErrEmptyStack is returned when popping or peeking an empty stack.
var ErrEmptyStack = errors.New("stack is empty")

// Stack is a LIFO stack. The zero value is an empty stack.
type Stack[T any] struct {
	items []T
}

// NewStack returns a stack holding the given items, last on top.
func NewStack[T any](items ...T) *Stack[T] {
	return &Stack[T]{items: append([]T(nil), items...)}
}

// Push places v on top.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top item.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrEmptyStack
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrEmptyStack
	}
	return s.items[len(s.items)-1], nil
}

// Len returns the number of items.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// Clone returns an independent copy of s.
func (s *Stack[T]) Clone() *Stack[T] {
	return NewStack(s.items...)
}

// MatrixStack is the modelview stack threaded through scene traversal.
type MatrixStack = Stack[math.Mat4]

// NewMatrixStack returns a stack holding only m.
func NewMatrixStack(m math.Mat4) *MatrixStack {
	return NewStack(m)
}

// top returns the current modelview, or identity for an empty stack.
func top(s *MatrixStack) math.Mat4 {
	if m, err := s.Peek(); err == nil {
		return m
	}
	return math.Identity()
}
