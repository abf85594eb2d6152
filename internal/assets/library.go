// Package assets holds named mesh templates and caches their densified forms.
package assets

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/mesh"
)

// ErrNotFound is returned for unknown template names.
var ErrNotFound = errors.New("assets: template not found")

// Prepared is a densified template.
type Prepared struct {
	Mesh   mesh.Mesh
	Result mesh.DensifyResult
	Stop   mesh.StopReason
}

// Library handles template registration and preparation.
type Library struct {
	templates map[string]mesh.Mesh
	cache     *Cache
	mu        sync.RWMutex
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		templates: make(map[string]mesh.Mesh),
		cache:     NewCache(),
	}
}

// Register adds or replaces a template. Replacing drops its cached forms.
func (l *Library) Register(name string, m mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}

	l.mu.Lock()
	_, replaced := l.templates[name]
	l.templates[name] = m.Clone()
	l.mu.Unlock()

	if replaced {
		l.cache.Clear()
	}
	return nil
}

// Names returns the registered template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a copy of the template as registered.
func (l *Library) Template(name string) (mesh.Mesh, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.templates[name]
	if !ok {
		return mesh.Mesh{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m.Clone(), nil
}

// Prepare returns a copy of the template densified with d. Results are
// cached per name and settings. A zero MaxEdgeLength returns the template
// unchanged.
func (l *Library) Prepare(name string, d config.DensifyConfig) (Prepared, error) {
	key := fmt.Sprintf("%s|%g|%d|%d", name, d.MaxEdgeLength, d.MaxPasses, d.MaxTriangles)
	if p, ok := l.cache.Get(key); ok {
		p.Mesh = p.Mesh.Clone()
		return p, nil
	}

	m, err := l.Template(name)
	if err != nil {
		return Prepared{}, err
	}

	p := Prepared{Mesh: m}
	if d.MaxEdgeLength > 0 {
		p.Mesh, p.Result, p.Stop, err = mesh.DensifyUntil(m, d.MaxEdgeLength, d.MaxPasses, d.MaxTriangles)
		if err != nil {
			return Prepared{}, fmt.Errorf("preparing %s: %w", name, err)
		}
	}

	l.cache.Set(key, p)
	p.Mesh = p.Mesh.Clone()
	return p, nil
}

// Stats returns cache statistics.
func (l *Library) Stats() (hits, misses int) {
	return l.cache.Stats()
}

// Cache is a simple in-memory cache of prepared meshes.
type Cache struct {
	data map[string]Prepared
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]Prepared),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (Prepared, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, p Prepared) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = p
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]Prepared)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
