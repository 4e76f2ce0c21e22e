//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/document"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
)

func addDoc(t *testing.T, vs *VectorStore, id string, embedding []float64, metadata map[string]any) {
	t.Helper()
	require.NoError(t, vs.Add(context.Background(), &document.Document{
		ID:       id,
		Content:  "content " + id,
		Metadata: metadata,
	}, embedding))
}

func TestAddAndSearch(t *testing.T) {
	vs := New()
	addDoc(t, vs, "a", []float64{1, 0, 0}, nil)
	addDoc(t, vs, "b", []float64{0, 1, 0}, nil)
	addDoc(t, vs, "c", []float64{0.9, 0.1, 0}, nil)

	results, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector: []float64{1, 0, 0},
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "c", results[1].Document.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchValidation(t *testing.T) {
	vs := New()
	_, err := vs.Search(context.Background(), nil)
	require.Error(t, err)
	_, err = vs.Search(context.Background(), &vectorstore.Query{})
	require.Error(t, err)

	require.Error(t, vs.Add(context.Background(), &document.Document{}, []float64{1}))
	require.Error(t, vs.Add(context.Background(), &document.Document{ID: "x"}, nil))
}

func TestSearchMinScore(t *testing.T) {
	vs := New()
	addDoc(t, vs, "near", []float64{1, 0}, nil)
	addDoc(t, vs, "far", []float64{-1, 0}, nil)

	results, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector:   []float64{1, 0},
		MinScore: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].Document.ID)
}

func TestSearchFilter(t *testing.T) {
	vs := New()
	addDoc(t, vs, "a", []float64{1, 0}, map[string]any{"org_id": int64(1)})
	addDoc(t, vs, "b", []float64{1, 0}, map[string]any{"org_id": int64(2)})
	addDoc(t, vs, "c", []float64{1, 0}, map[string]any{"org_id": int64(3)})

	// Scalar filter.
	results, err := vs.Search(context.Background(), &vectorstore.Query{
		Vector: []float64{1, 0},
		Filter: map[string]any{"org_id": int64(2)},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Document.ID)

	// Slice filter means membership.
	results, err = vs.Search(context.Background(), &vectorstore.Query{
		Vector: []float64{1, 0},
		Filter: map[string]any{"org_id": []int64{1, 3}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Missing key never matches.
	results, err = vs.Search(context.Background(), &vectorstore.Query{
		Vector: []float64{1, 0},
		Filter: map[string]any{"file_id": int64(9)},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteAndReplace(t *testing.T) {
	vs := New()
	addDoc(t, vs, "a", []float64{1, 0}, nil)
	require.Equal(t, 1, vs.Len())

	// Same ID replaces.
	addDoc(t, vs, "a", []float64{0, 1}, nil)
	require.Equal(t, 1, vs.Len())

	require.NoError(t, vs.Delete(context.Background(), "a"))
	require.NoError(t, vs.Delete(context.Background(), "a"))
	assert.Equal(t, 0, vs.Len())
}

func TestSearchReturnsClones(t *testing.T) {
	vs := New()
	addDoc(t, vs, "a", []float64{1, 0}, map[string]any{"k": "v"})

	results, err := vs.Search(context.Background(), &vectorstore.Query{Vector: []float64{1, 0}})
	require.NoError(t, err)
	results[0].Document.Metadata["k"] = "mutated"

	again, err := vs.Search(context.Background(), &vectorstore.Query{Vector: []float64{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, "v", again[0].Document.Metadata["k"])
}
