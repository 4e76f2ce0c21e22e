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
	"strconv"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore"
)

// Verify that GraphAdapter implements the GraphRetriever interface.
var _ GraphRetriever = (*GraphAdapter)(nil)

// graphFactScore is the flat relevance assigned to traversal facts. Graph
// hits carry no similarity of their own; the flat score places them above
// mediocre vector hits while the rerank tie-break prefers graph origin.
const graphFactScore = 0.8

// GraphAdapter converts graph store traversals into retrieval candidates.
type GraphAdapter struct {
	store graphstore.GraphStore
}

// NewGraphAdapter creates a graph retrieval adapter.
func NewGraphAdapter(store graphstore.GraphStore) *GraphAdapter {
	return &GraphAdapter{store: store}
}

// Retrieve implements the GraphRetriever interface.
func (a *GraphAdapter) Retrieve(ctx context.Context, query string, orgIDs []int64) ([]knowledge.Candidate, *graphstore.Payload, error) {
	orgs := make([]string, len(orgIDs))
	for i, id := range orgIDs {
		orgs[i] = strconv.FormatInt(id, 10)
	}

	result, err := a.store.Retrieve(ctx, query, orgs)
	if err != nil {
		return nil, nil, fmt.Errorf("graph store retrieve: %w", err)
	}

	candidates := make([]knowledge.Candidate, 0, len(result.Facts))
	for _, fact := range result.Facts {
		candidates = append(candidates, knowledge.Candidate{
			Content:  fact.Text,
			SourceID: fact.SourceID,
			Origin:   knowledge.OriginGraph,
			Score:    graphFactScore,
			Metadata: map[string]any{"entities": fact.Entities},
		})
	}
	return candidates, result.Payload, nil
}
