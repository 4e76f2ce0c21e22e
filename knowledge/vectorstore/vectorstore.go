//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package vectorstore defines the vector index interface used by the
// retrieval adapters. Implementations live in subpackages.
package vectorstore

import (
	"context"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/document"
)

// Query is a similarity search request.
type Query struct {
	// Vector is the embedded query.
	Vector []float64
	// Limit caps the number of results. Zero means implementation default.
	Limit int
	// MinScore filters out results below the given similarity. Scores are
	// normalized to [0,1] with 1 meaning identical.
	MinScore float64
	// Filter restricts the search to documents whose metadata matches every
	// entry. A slice value matches when the document's value equals any of
	// its elements. A nil or empty filter matches all documents.
	Filter map[string]any
}

// Result is one similarity search hit.
type Result struct {
	// Document is the matched chunk.
	Document *document.Document
	// Score is the normalized similarity in [0,1].
	Score float64
}

// VectorStore is the interface every vector index implements. All methods
// are safe for concurrent use.
type VectorStore interface {
	// Add indexes a document with its embedding. An existing document with
	// the same ID is replaced.
	Add(ctx context.Context, doc *document.Document, embedding []float64) error

	// Search performs nearest-neighbor search and returns results ordered by
	// descending score.
	Search(ctx context.Context, query *Query) ([]*Result, error)

	// Delete removes a document by ID. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases underlying resources.
	Close() error
}
