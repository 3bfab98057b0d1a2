package viewvalues

import "sync"

// Provider installs view values onto a handler. Embed it and set Helpers
// to expose helper methods by name.
type Provider struct {
	Helpers HelperSource

	mu   sync.RWMutex
	vars map[string]*Context
}

// NewProvider returns a Provider resolving helpers through src.
func NewProvider(src HelperSource) *Provider {
	return &Provider{Helpers: src}
}

// BuildViewValues builds a Context and stores it under the configured
// accessor name, replacing any previous build.
func (p *Provider) BuildViewValues(data map[string]any, helpers ...string) (*Context, error) {
	ctx, err := Build(p.Helpers, data, helpers...)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vars == nil {
		p.vars = make(map[string]*Context)
	}
	p.vars[InstanceVarName()] = ctx
	return ctx, nil
}

// ViewValues returns the Context stored under the configured accessor, or
// nil before BuildViewValues has been called.
func (p *Provider) ViewValues() *Context {
	return p.Var(InstanceVarName())
}

// Var returns the Context stored under an explicit accessor name.
func (p *Provider) Var(name string) *Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vars[name]
}
