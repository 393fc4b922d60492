// Package assets resolves scene resources from disk and loads them before a
// render starts.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/internal/engine/texture"
	"github.com/Faultbox/scenetrace/pkg/formats"
)

// ErrNotFound is returned when no search directory holds the file.
var ErrNotFound = errors.New("asset not found")

// Manager loads files from a list of search directories.
type Manager struct {
	dirs  []string
	cache *Cache
	log   *zap.Logger
	mu    sync.RWMutex
}

// NewManager creates a manager searching dirs. A nil logger disables logging.
func NewManager(log *zap.Logger, dirs ...string) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dirs:  append([]string(nil), dirs...),
		cache: NewCache(),
		log:   log,
	}
}

// AddSearchDir adds a directory to search.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddSearchDir(dir string) {
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
}

// Find returns the on-disk location of path. Absolute paths are used as is.
func (m *Manager) Find(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.dirs) - 1; i >= 0; i-- {
		full := filepath.Join(m.dirs[i], path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Load reads a file through the cache.
func (m *Manager) Load(path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	full, err := m.Find(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", full, err)
	}
	m.cache.Set(path, data)
	return data, nil
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache { return m.cache }

// Close drops every cached file.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Resolve loads every mesh and texture g refers to, concurrently, and
// returns once all of them are in place. Meshes backed by a closed-form
// primitive may lack a file; any other failure aborts with an error and
// leaves no textures installed.
func (m *Manager) Resolve(ctx context.Context, g *scene.Scenegraph) error {
	eg, ctx := errgroup.WithContext(ctx)

	for _, name := range g.MeshNames() {
		mesh, _ := g.Mesh(name)
		if mesh.Data != nil || mesh.Path == "" {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			obj, err := m.loadOBJ(mesh.Path)
			if err != nil {
				missing := errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
				if missing && mesh.Primitive != "" {
					m.log.Debug("primitive mesh has no file",
						zap.String("mesh", mesh.Name), zap.String("path", mesh.Path))
					return nil
				}
				return fmt.Errorf("mesh %s: %w", mesh.Name, err)
			}
			mesh.Data = obj
			m.log.Debug("mesh loaded",
				zap.String("mesh", mesh.Name),
				zap.Int("triangles", obj.TriangleCount()))
			return nil
		})
	}

	paths := g.TexturePaths()
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	loaded := make([]*texture.Texture, len(names))
	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := m.loadTexture(name, paths[name])
			if err != nil {
				return fmt.Errorf("texture %s: %w", name, err)
			}
			loaded[i] = t
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	for _, t := range loaded {
		g.SetTexture(t.Name, t)
	}
	hits, misses := m.cache.Stats()
	m.log.Info("assets resolved",
		zap.Int("meshes", len(g.MeshNames())),
		zap.Int("textures", len(loaded)),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses))
	return nil
}

func (m *Manager) loadOBJ(path string) (*formats.OBJMesh, error) {
	data, err := m.Load(path)
	if err != nil {
		return nil, err
	}
	obj, err := formats.ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	obj.Canonicalize()
	return obj, nil
}

func (m *Manager) loadTexture(name, path string) (*texture.Texture, error) {
	data, err := m.Load(path)
	if err != nil {
		return nil, err
	}
	img, format, err := texture.Decode(path, data)
	if err != nil {
		return nil, err
	}
	t := texture.New(name, img)
	m.log.Debug("texture loaded",
		zap.String("texture", name),
		zap.String("format", format),
		zap.Int("width", t.Width),
		zap.Int("height", t.Height))
	return t, nil
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
