package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/auricle-voice/auricle/pkg/provider/live"
	"github.com/auricle-voice/auricle/pkg/provider/wake"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	live map[string]func(LiveConfig) (live.Provider, error)
	wake map[string]func(WakeConfig) (wake.Classifier, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		live: make(map[string]func(LiveConfig) (live.Provider, error)),
		wake: make(map[string]func(WakeConfig) (wake.Classifier, error)),
	}
}

// RegisterLive registers a live provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLive(name string, factory func(LiveConfig) (live.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[name] = factory
}

// RegisterWake registers a wake classifier factory under name.
func (r *Registry) RegisterWake(name string, factory func(WakeConfig) (wake.Classifier, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wake[name] = factory
}

// CreateLive instantiates a live provider using the factory registered under
// cfg.Provider. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateLive(cfg LiveConfig) (live.Provider, error) {
	r.mu.RLock()
	factory, ok := r.live[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: live/%q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(cfg)
}

// CreateWake instantiates a wake classifier using the factory registered
// under cfg.Backend.
func (r *Registry) CreateWake(cfg WakeConfig) (wake.Classifier, error) {
	r.mu.RLock()
	factory, ok := r.wake[string(cfg.Backend)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: wake/%q", ErrProviderNotRegistered, cfg.Backend)
	}
	return factory(cfg)
}
