// Package email sends notification emails through a primary provider with ordered fallbacks.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Request is an email to be sent.
type Request struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Provider is an email backend such as SES or Resend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *Request) error
	IsConfigured() bool
}

// Registry holds providers and the order they are tried in.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the provider tried first.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the providers tried, in order, after the primary fails.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// order returns the configured providers in the order they should be tried.
func (r *Registry) order() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	seen := make(map[string]bool)
	for _, name := range append([]string{r.primary}, r.fallback...) {
		p, ok := r.providers[name]
		if !ok || seen[name] || !p.IsConfigured() {
			continue
		}
		seen[name] = true
		out = append(out, p)
	}
	return out
}

// Configured reports whether any provider in the send order is usable.
func (r *Registry) Configured() bool {
	return len(r.order()) > 0
}

// Send tries each configured provider until one succeeds.
func (r *Registry) Send(ctx context.Context, req *Request) error {
	providers := r.order()
	if len(providers) == 0 {
		return fmt.Errorf("no configured email provider available")
	}

	var errs []error
	for i, p := range providers {
		err := p.Send(ctx, req)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if i+1 < len(providers) {
			slog.Warn("Email provider failed, trying fallback",
				"provider", p.Name(),
				"fallback", providers[i+1].Name(),
				"error", err,
			)
		}
	}
	return errors.Join(errs...)
}
