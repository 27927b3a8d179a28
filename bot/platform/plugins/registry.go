// Package plugins is the compile-time catalog registry. Catalog packages call
// Register from init and main imports them for the side effect.
package plugins

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/spotelegramify/spotelegramify-go/bot/config"
	logpkg "github.com/spotelegramify/spotelegramify-go/bot/logger"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// Contribution is what an initialized plugin hands to the app.
type Contribution struct {
	Catalog platform.Catalog
}

// Factory builds a plugin from config. A nil contribution with a nil error
// means the plugin has no credentials and is skipped.
type Factory func(cfg *config.Config, logger *logpkg.Logger) (*Contribution, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a factory. Names must be unique.
func Register(name string, factory Factory) error {
	switch {
	case name == "":
		return errors.New("plugin name required")
	case factory == nil:
		return fmt.Errorf("plugin %s: factory required", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		return fmt.Errorf("plugin %s already registered", name)
	}
	registry[name] = factory
	return nil
}

func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// Names lists registered plugins alphabetically.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}
