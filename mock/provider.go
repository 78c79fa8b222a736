// Package mock provides test doubles for codey interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/codey"
)

// Interface compliance checks.
var (
	_ codey.Provider  = (*Provider)(nil)
	_ codey.Provider  = (*Generator)(nil)
	_ codey.Generator = (*Generator)(nil)
)

// Provider is a test double for codey.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req codey.Request) (codey.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req codey.Request) (codey.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Generator is a test double for a provider that also implements
// codey.Generator.
type Generator struct {
	StreamFn   func(ctx context.Context, req codey.Request) (codey.Stream, error)
	GenerateFn func(ctx context.Context, req codey.Request) (codey.Reply, error)
}

// Stream delegates to StreamFn.
func (g *Generator) Stream(ctx context.Context, req codey.Request) (codey.Stream, error) {
	return g.StreamFn(ctx, req)
}

// Generate delegates to GenerateFn.
func (g *Generator) Generate(ctx context.Context, req codey.Request) (codey.Reply, error) {
	return g.GenerateFn(ctx, req)
}
