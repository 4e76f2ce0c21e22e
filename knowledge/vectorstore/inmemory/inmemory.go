//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory vector store backed by brute-force
// cosine similarity. It backs session-scoped temporary collections and tests.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/document"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
)

// Verify that VectorStore implements the vectorstore.VectorStore interface.
var _ vectorstore.VectorStore = (*VectorStore)(nil)

const defaultLimit = 10

type entry struct {
	doc       *document.Document
	embedding []float64
}

// VectorStore is a thread-safe in-memory vector index.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty in-memory vector store.
func New() *VectorStore {
	return &VectorStore{entries: make(map[string]entry)}
}

// Add implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Add(ctx context.Context, doc *document.Document, embedding []float64) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document must have an ID")
	}
	if len(embedding) == 0 {
		return errors.New("embedding cannot be empty")
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.entries[doc.ID] = entry{doc: doc.Clone(), embedding: embedding}
	return nil
}

// Search implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Search(ctx context.Context, query *vectorstore.Query) ([]*vectorstore.Result, error) {
	if query == nil || len(query.Vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	vs.mu.RLock()
	defer vs.mu.RUnlock()

	results := make([]*vectorstore.Result, 0, len(vs.entries))
	for _, e := range vs.entries {
		if !matchesFilter(e.doc, query.Filter) {
			continue
		}
		score := cosineSimilarity(query.Vector, e.embedding)
		if score < query.MinScore {
			continue
		}
		results = append(results, &vectorstore.Result{
			Document: e.doc.Clone(),
			Score:    score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Delete(ctx context.Context, id string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	delete(vs.entries, id)
	return nil
}

// Close implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Close() error {
	return nil
}

// Len returns the number of indexed documents.
func (vs *VectorStore) Len() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.entries)
}

func matchesFilter(doc *document.Document, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc.Metadata[k]
		if !ok || !matchesValue(got, want) {
			return false
		}
	}
	return true
}

// matchesValue compares on string form so int64 and float64 metadata agree,
// and treats a slice as set membership.
func matchesValue(got, want any) bool {
	rv := reflect.ValueOf(want)
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if fmt.Sprint(got) == fmt.Sprint(rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

// cosineSimilarity maps the raw cosine in [-1,1] to a score in [0,1].
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
