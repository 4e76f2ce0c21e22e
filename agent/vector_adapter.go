//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/embedder"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
)

// Verify that VectorAdapter implements the VectorRetriever interface.
var _ VectorRetriever = (*VectorAdapter)(nil)

const (
	defaultVectorLimit    = 10
	defaultVectorMinScore = 0.2

	// Metadata keys written by the ingestion pipeline.
	metaOrgID  = "org_id"
	metaFileID = "file_id"
	metaName   = "file_name"
)

// VectorAdapter implements vector retrieval over an embedder and a vector
// store.
type VectorAdapter struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	limit    int
	minScore float64
}

// VectorAdapterOption configures a VectorAdapter.
type VectorAdapterOption func(*VectorAdapter)

// WithVectorLimit sets the maximum number of candidates returned.
func WithVectorLimit(limit int) VectorAdapterOption {
	return func(a *VectorAdapter) {
		if limit > 0 {
			a.limit = limit
		}
	}
}

// WithVectorMinScore sets the similarity floor for candidates.
func WithVectorMinScore(minScore float64) VectorAdapterOption {
	return func(a *VectorAdapter) {
		a.minScore = minScore
	}
}

// NewVectorAdapter creates a vector retrieval adapter.
func NewVectorAdapter(emb embedder.Embedder, store vectorstore.VectorStore, opts ...VectorAdapterOption) *VectorAdapter {
	a := &VectorAdapter{
		embedder: emb,
		store:    store,
		limit:    defaultVectorLimit,
		minScore: defaultVectorMinScore,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Retrieve implements the VectorRetriever interface.
func (a *VectorAdapter) Retrieve(ctx context.Context, query string, orgIDs, fileIDs []int64) ([]knowledge.Candidate, error) {
	vector, err := a.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := make(map[string]any)
	if len(orgIDs) > 0 {
		filter[metaOrgID] = orgIDs
	}
	if len(fileIDs) > 0 {
		filter[metaFileID] = fileIDs
	}

	results, err := a.store.Search(ctx, &vectorstore.Query{
		Vector:   vector,
		Limit:    a.limit,
		MinScore: a.minScore,
		Filter:   filter,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]knowledge.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, knowledge.Candidate{
			Content:  r.Document.Content,
			SourceID: r.Document.ID,
			Origin:   knowledge.OriginVector,
			Score:    r.Score,
			Metadata: r.Document.Metadata,
		})
	}
	return candidates, nil
}
