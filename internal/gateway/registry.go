package gateway

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mdiqbalhossan/paygate/internal/domain/errors"
)

// ConfigSource supplies the per-gateway configuration consumed at resolution
// time. The second return value reports whether the gateway is configured at
// all; unconfigured gateways fall back to DefaultConfig.
type ConfigSource func(name string) (Config, bool)

// Registry owns the mapping from gateway name to factory and lazily built,
// cached gateway instance. Names are case-insensitive. Resolution is
// idempotent: the first Resolve constructs and configures the instance, every
// later Resolve returns the same one.
type Registry struct {
	mu          sync.RWMutex
	factories   map[string]Factory
	instances   map[string]Gateway
	configs     ConfigSource
	defaultName string

	// group collapses concurrent first-builds of the same gateway so a
	// factory never runs twice for one name.
	group singleflight.Group
}

// NewRegistry creates a registry backed by the given configuration source.
// A nil source leaves every registered gateway enabled in sandbox mode.
func NewRegistry(configs ConfigSource) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Gateway),
		configs:   configs,
	}
}

// Register adds or overrides the factory for a gateway name. Overriding
// discards any cached instance built from the previous factory.
func (r *Registry) Register(name string, factory Factory) error {
	key := normalizeName(name)
	if key == "" {
		return fmt.Errorf("register gateway: empty name: %w", errors.ErrInvalidConfiguration)
	}
	if factory == nil {
		return fmt.Errorf("register gateway %q: nil factory: %w", name, errors.ErrInvalidConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key] = factory
	delete(r.instances, key)
	return nil
}

// Resolve returns the configured, cached gateway instance for a name,
// building it on first use. Unknown and disabled names fail with
// ErrGatewayNotFound.
func (r *Registry) Resolve(name string) (Gateway, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("resolve gateway: empty name: %w", errors.ErrGatewayNotFound)
	}

	r.mu.RLock()
	if gw, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return gw, nil
	}
	factory, registered := r.factories[key]
	r.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("gateway %q: %w", key, errors.ErrGatewayNotFound)
	}

	cfg := r.configFor(key)
	if !cfg.Enabled {
		return nil, fmt.Errorf("gateway %q: %w", key, errors.ErrGatewayNotFound)
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check the cache: a concurrent caller may have finished the build
		// while this one was waiting on the flight group.
		r.mu.RLock()
		if gw, ok := r.instances[key]; ok {
			r.mu.RUnlock()
			return gw, nil
		}
		r.mu.RUnlock()

		gw := factory()
		if gw == nil {
			return nil, fmt.Errorf("gateway %q: factory returned nil: %w", key, errors.ErrInvalidConfiguration)
		}
		gw.Configure(cfg)

		r.mu.Lock()
		r.instances[key] = gw
		r.mu.Unlock()
		return gw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Gateway), nil
}

// List returns the sorted names of all registered, enabled gateways.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()

	enabled := names[:0]
	for _, name := range names {
		if r.configFor(name).Enabled {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)
	return enabled
}

// SetDefault sets the process-wide default gateway. The name must resolve.
func (r *Registry) SetDefault(name string) error {
	if _, err := r.Resolve(name); err != nil {
		return err
	}
	r.mu.Lock()
	r.defaultName = normalizeName(name)
	r.mu.Unlock()
	return nil
}

// DefaultName returns the configured default gateway name, or "".
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Default resolves the default gateway.
func (r *Registry) Default() (Gateway, error) {
	name := r.DefaultName()
	if name == "" {
		return nil, fmt.Errorf("no default gateway configured: %w", errors.ErrGatewayNotFound)
	}
	return r.Resolve(name)
}

func (r *Registry) configFor(key string) Config {
	if r.configs == nil {
		return DefaultConfig()
	}
	cfg, ok := r.configs(key)
	if !ok {
		return DefaultConfig()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSandbox
	}
	return cfg
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsNotFound reports whether err is a gateway resolution failure.
func IsNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrGatewayNotFound)
}
