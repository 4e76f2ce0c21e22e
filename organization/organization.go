//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package organization exposes the read-only organization registry the
// workflow consults, most importantly the per-organization graph gate.
package organization

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound indicates an unknown organization ID.
var ErrNotFound = errors.New("organization not found")

// Config describes one organization.
type Config struct {
	// ID is the organization identifier.
	ID int64 `json:"id" yaml:"id"`
	// Name is the display name.
	Name string `json:"name" yaml:"name"`
	// GraphEnabled gates knowledge-graph traversal. When false the graph
	// retriever is never invoked for this organization, whatever the
	// evaluation verdict.
	GraphEnabled bool `json:"graph_enabled" yaml:"graph_enabled"`
}

// Provider is the read-only organization registry interface.
type Provider interface {
	// Get returns one organization or ErrNotFound.
	Get(ctx context.Context, id int64) (*Config, error)

	// All returns every organization visible to the caller.
	All(ctx context.Context) ([]*Config, error)
}

// StaticProvider is a Provider over a fixed set of organizations, typically
// loaded from configuration.
type StaticProvider struct {
	mu   sync.RWMutex
	byID map[int64]*Config
	ids  []int64
}

// NewStaticProvider creates a provider over the given organizations.
func NewStaticProvider(configs []Config) *StaticProvider {
	p := &StaticProvider{byID: make(map[int64]*Config, len(configs))}
	for i := range configs {
		c := configs[i]
		if _, exists := p.byID[c.ID]; exists {
			continue
		}
		p.byID[c.ID] = &c
		p.ids = append(p.ids, c.ID)
	}
	return p
}

// Get implements the Provider interface.
func (p *StaticProvider) Get(_ context.Context, id int64) (*Config, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	clone := *c
	return &clone, nil
}

// All implements the Provider interface.
func (p *StaticProvider) All(_ context.Context) ([]*Config, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Config, 0, len(p.ids))
	for _, id := range p.ids {
		clone := *p.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

// Gate adapts a Provider to the graph-enabled subset lookup the workflow
// performs before any graph traversal.
type Gate struct {
	provider Provider
}

// NewGate creates a Gate over the given provider.
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider}
}

// GraphEnabledOrgs returns the graph-enabled subset of orgIDs. Nil orgIDs
// means all organizations; unknown IDs are reported as errors so a caller
// cannot widen its scope through typos.
func (g *Gate) GraphEnabledOrgs(ctx context.Context, orgIDs []int64) ([]int64, error) {
	if orgIDs == nil {
		all, err := g.provider.All(ctx)
		if err != nil {
			return nil, err
		}
		var enabled []int64
		for _, c := range all {
			if c.GraphEnabled {
				enabled = append(enabled, c.ID)
			}
		}
		return enabled, nil
	}

	var enabled []int64
	for _, id := range orgIDs {
		c, err := g.provider.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.GraphEnabled {
			enabled = append(enabled, id)
		}
	}
	return enabled, nil
}
