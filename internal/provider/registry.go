// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"fmt"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// Registry holds the provider adapters built at startup. It is read-only
// after construction and passed by reference into the pipeline; nothing
// looks providers up through ambient state.
type Registry struct {
	clients map[string]Client
}

// NewRegistry builds adapters for every configured provider. A provider
// entry without an API key is skipped rather than constructed broken.
func NewRegistry(cfgs map[string]types.ProviderConfig) (*Registry, error) {
	clients := make(map[string]Client)
	for name, cfg := range cfgs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "anthropic":
			clients[name] = NewAnthropic(cfg)
		case "openai":
			clients[name] = NewOpenAI(cfg)
		case "openrouter":
			clients[name] = NewOpenRouter(cfg)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return &Registry{clients: clients}, nil
}

// NewRegistryWithClients wraps already constructed clients, keyed by
// name. Used when callers supply their own adapters (tests, embedding).
func NewRegistryWithClients(clients map[string]Client) *Registry {
	return &Registry{clients: clients}
}

// Get returns the named adapter. An empty name is ErrNoProvider; a name
// with no configured adapter is an error, never a silent default.
func (r *Registry) Get(name string) (Client, error) {
	if name == "" {
		return nil, ErrNoProvider
	}
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured (missing API key?)", name)
	}
	return c, nil
}

// Names returns the configured provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
