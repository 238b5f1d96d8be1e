// Package assets handles glTF asset loading and caching.
package assets

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/meshtools/gltf-draco/pkg/loader"
)

// Asset is a parsed glTF document together with its resolved buffer
// payloads.
type Asset struct {
	Path    string
	Doc     *gltf.Document
	Buffers [][]byte
}

// Manager loads glTF and GLB files from disk and caches parsed documents.
type Manager struct {
	mu    sync.Mutex
	cache map[string]*Asset

	// Stats
	hits   int
	misses int
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: make(map[string]*Asset),
	}
}

// Load parses the file at path and resolves its buffer payloads. External
// buffer URIs are read relative to the file's directory. Documents are
// cached by cleaned path; callers share the cached document and must not
// mutate it.
func (m *Manager) Load(path string) (*Asset, error) {
	key := filepath.Clean(path)

	m.mu.Lock()
	if asset, ok := m.cache[key]; ok {
		m.hits++
		m.mu.Unlock()
		return asset, nil
	}
	m.misses++
	m.mu.Unlock()

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	buffers, err := loader.ResolveBuffers(doc, os.DirFS(filepath.Dir(path)))
	if err != nil {
		return nil, errors.Wrapf(err, "resolving buffers for %s", path)
	}

	asset := &Asset{Path: key, Doc: doc, Buffers: buffers}

	m.mu.Lock()
	m.cache[key] = asset
	m.mu.Unlock()

	return asset, nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// Clear drops all cached documents and resets the statistics.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*Asset)
	m.hits = 0
	m.misses = 0
}
