//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package graphstore defines the knowledge-graph query interface used by the
// graph retrieval path.
package graphstore

import "context"

// Node is one vertex of the visualization payload.
type Node struct {
	// ID is the unique node identifier.
	ID string `json:"id"`
	// Label is the display name of the entity.
	Label string `json:"label"`
	// Type is the entity type (e.g. "component", "person", "concept").
	Type string `json:"type,omitempty"`
}

// Link is one edge of the visualization payload.
type Link struct {
	// Source is the ID of the source node.
	Source string `json:"source"`
	// Target is the ID of the target node.
	Target string `json:"target"`
	// Label is the relationship name.
	Label string `json:"label,omitempty"`
}

// Payload is the subgraph returned alongside fact candidates, shaped for
// client-side visualization.
type Payload struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Fact is one textual statement derived from a graph traversal.
type Fact struct {
	// Text is the fact rendered as a sentence.
	Text string `json:"text"`
	// SourceID identifies the graph record the fact came from.
	SourceID string `json:"source_id"`
	// Entities names the entities the fact connects.
	Entities []string `json:"entities,omitempty"`
}

// Result bundles the facts and the subgraph of one traversal.
type Result struct {
	Facts   []Fact
	Payload *Payload
}

// GraphStore is the interface every knowledge-graph backend implements.
type GraphStore interface {
	// Retrieve runs an entity-seeded traversal for the given query, scoped to
	// the given organizations. A nil orgIDs slice means no org restriction.
	Retrieve(ctx context.Context, query string, orgIDs []string) (*Result, error)

	// Close releases underlying resources.
	Close(ctx context.Context) error
}
