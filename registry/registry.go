// Package registry resolves which named backend server a call targets and
// persists the active choice across restarts.
package registry

import (
	"context"
	"net/url"

	"github.com/progalaxyelabs/stonescript-auth-go/domain"
	"github.com/progalaxyelabs/stonescript-auth-go/errors"
	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/storage"
)

// Registry holds the declared server descriptors in declaration order plus
// the mutable active-server pointer.
type Registry struct {
	servers   []domain.AuthServerDescriptor
	byName    map[string]domain.AuthServerDescriptor
	active    string
	legacyURL string

	durable storage.Store
	logger  log.Logger
}

// New builds a registry from descriptors in declaration order. legacyURL is
// the single-server fallback used when no descriptor resolves; it may be
// empty. A previously persisted active-server choice is restored when it
// still names a declared server, and silently discarded otherwise.
func New(servers []domain.AuthServerDescriptor, legacyURL string, durable storage.Store, logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	r := &Registry{
		servers:   servers,
		byName:    make(map[string]domain.AuthServerDescriptor, len(servers)),
		legacyURL: legacyURL,
		durable:   durable,
		logger:    logger,
	}
	for _, s := range servers {
		if _, dup := r.byName[s.Name]; !dup {
			r.byName[s.Name] = s
		}
	}
	if name, ok := durable.Get(storage.KeyActiveServer); ok {
		if _, declared := r.byName[name]; declared {
			r.active = name
		} else {
			logger.Warn(context.Background(), "persisted server selection no longer configured, falling back", map[string]any{"server": name})
		}
	}
	return r
}

// Resolve returns the descriptor for the given server name. An empty name
// walks the fallback chain: persisted active selection, the first
// default-flagged descriptor, the first declared descriptor, then the
// legacy fallback URL.
func (r *Registry) Resolve(name string) (domain.AuthServerDescriptor, error) {
	if name != "" {
		if s, ok := r.byName[name]; ok {
			return s, nil
		}
		return domain.AuthServerDescriptor{}, errors.ErrUnknownServer
	}

	if r.active != "" {
		if s, ok := r.byName[r.active]; ok {
			return s, nil
		}
	}
	for _, s := range r.servers {
		if s.IsDefault {
			return s, nil
		}
	}
	if len(r.servers) > 0 {
		return r.servers[0], nil
	}
	if r.legacyURL != "" {
		return domain.AuthServerDescriptor{Name: "default", BaseURL: r.legacyURL}, nil
	}
	return domain.AuthServerDescriptor{}, errors.ErrNoServer
}

// BaseURL resolves the backend origin for a call; see Resolve.
func (r *Registry) BaseURL(name string) (string, error) {
	s, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return s.BaseURL, nil
}

// Origin returns the scheme://host[:port] of the resolved server, used as
// the strict origin check for popup messages.
func (r *Registry) Origin(name string) (string, error) {
	base, err := r.BaseURL(name)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.NewConfiguration("invalid server base URL: " + base)
	}
	return u.Scheme + "://" + u.Host, nil
}

// SwitchServer validates name, persists the choice, and updates the
// in-memory pointer.
func (r *Registry) SwitchServer(name string) error {
	if _, ok := r.byName[name]; !ok {
		return errors.ErrUnknownServer
	}
	r.active = name
	if err := r.durable.Set(storage.KeyActiveServer, name); err != nil {
		r.logger.Warn(context.Background(), "failed to persist server selection", map[string]any{
			"server": name,
			"error":  err.Error(),
		})
	}
	return nil
}

// Active returns the persisted active-server name, empty when none is set.
func (r *Registry) Active() string { return r.active }

// Servers returns the declared descriptors in declaration order.
func (r *Registry) Servers() []domain.AuthServerDescriptor { return r.servers }
