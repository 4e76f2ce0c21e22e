//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package knowledge defines the retrieval candidate type produced by the
// vector, temp and graph retrieval paths and consumed by the reranker.
package knowledge

// Candidate origins, in descending rerank tie-break priority.
const (
	OriginGraph  = "graph"
	OriginVector = "vector"
	OriginTemp   = "temp"
)

// originPriority maps an origin to its tie-break rank. Lower is better.
var originPriority = map[string]int{
	OriginGraph:  0,
	OriginVector: 1,
	OriginTemp:   2,
}

// OriginPriority returns the tie-break rank for an origin. Unknown origins
// sort last.
func OriginPriority(origin string) int {
	if p, ok := originPriority[origin]; ok {
		return p
	}
	return len(originPriority)
}

// Candidate is one retrieval result. Candidates are immutable once produced;
// the reranker builds its own ranked view instead of mutating them.
type Candidate struct {
	// Content is the snippet text.
	Content string `json:"content"`
	// SourceID identifies the underlying source record. Candidates from
	// different origins may share a SourceID; the reranker dedupes on it.
	SourceID string `json:"source_id"`
	// Origin is one of OriginVector, OriginTemp, OriginGraph.
	Origin string `json:"origin"`
	// Score is the normalized relevance in [0,1], comparable across origins.
	Score float64 `json:"score"`
	// Metadata carries origin-specific extras (file name, entity names, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
}
