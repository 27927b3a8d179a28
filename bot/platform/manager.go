package platform

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spotelegramify/spotelegramify-go/bot/platform/registry"
)

// DefaultManager implements Manager on top of a link registry.
type DefaultManager struct {
	registry *registry.Registry
	mu       sync.RWMutex
	catalogs map[string]Catalog
	order    []string
	meta     map[string]Meta
	aliases  map[string]string
}

// NewManager creates a manager with its own registry.
func NewManager() *DefaultManager {
	return NewManagerWithRegistry(registry.New())
}

// NewManagerWithRegistry creates a manager with a custom registry.
// This is useful for testing or isolated instances.
func NewManagerWithRegistry(reg *registry.Registry) *DefaultManager {
	return &DefaultManager{
		registry: reg,
		catalogs: make(map[string]Catalog),
		meta:     make(map[string]Meta),
		aliases:  make(map[string]string),
	}
}

// Register adds a catalog. Names must be unique.
func (m *DefaultManager) Register(catalog Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog required")
	}
	name := strings.TrimSpace(catalog.Name())
	if name == "" {
		return fmt.Errorf("catalog name required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.catalogs[name]; exists {
		return fmt.Errorf("catalog %s already registered", name)
	}
	if err := m.registry.Register(catalogSource{catalog: catalog}); err != nil {
		return err
	}
	m.catalogs[name] = catalog
	m.order = append(m.order, name)
	meta := buildMeta(catalog, name)
	m.meta[name] = meta
	m.indexAliases(meta)
	return nil
}

// Get retrieves a catalog by name, or nil.
func (m *DefaultManager) Get(name string) Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalogs[name]
}

// List returns catalog names in registration order.
func (m *DefaultManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// ExtractLinks returns track and album links of all catalogs in text order.
func (m *DefaultManager) ExtractLinks(text string) []Link {
	return linksFromMatches(m.registry.MatchAll(text))
}

// MatchPlaylist finds the first playlist link in text.
func (m *DefaultManager) MatchPlaylist(text string) (string, string, bool) {
	match, ok := m.registry.MatchFirst(text, string(KindPlaylist))
	if !ok {
		return "", "", false
	}
	return match.Source, match.ID, true
}

// ResolveAlias maps a user supplied token ("sp", "Spotify", "@tidal") to a catalog name.
func (m *DefaultManager) ResolveAlias(alias string) (string, bool) {
	key := normalizeAlias(alias)
	if key == "" {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.aliases[key]
	return name, ok
}

// Meta returns metadata for a catalog.
func (m *DefaultManager) Meta(name string) (Meta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.meta[name]
	return meta, ok
}

// ListMeta returns metadata in registration order.
func (m *DefaultManager) ListMeta() []Meta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Meta, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.meta[name])
	}
	return out
}

// DisplayName returns a human label for a catalog, falling back to its name.
func DisplayName(manager Manager, name string) string {
	if manager != nil {
		if meta, ok := manager.Meta(name); ok && strings.TrimSpace(meta.DisplayName) != "" {
			return meta.DisplayName
		}
	}
	return name
}

func buildMeta(catalog Catalog, name string) Meta {
	meta := Meta{Name: name, DisplayName: name}
	if provider, ok := catalog.(MetadataProvider); ok {
		provided := provider.Metadata()
		if strings.TrimSpace(provided.DisplayName) != "" {
			meta.DisplayName = provided.DisplayName
		}
		meta.Emoji = provided.Emoji
		meta.Aliases = append(meta.Aliases, provided.Aliases...)
	}
	return meta
}

func (m *DefaultManager) indexAliases(meta Meta) {
	tokens := append([]string{meta.Name, meta.DisplayName}, meta.Aliases...)
	for _, token := range tokens {
		key := normalizeAlias(token)
		if key == "" {
			continue
		}
		if _, taken := m.aliases[key]; taken {
			continue
		}
		m.aliases[key] = meta.Name
	}
}
