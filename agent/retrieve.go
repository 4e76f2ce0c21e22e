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

	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
)

// VectorRetriever searches the persistent knowledge index.
type VectorRetriever interface {
	// Retrieve returns candidates for the query scoped to the given
	// organizations and, optionally, documents. Nil orgIDs means all
	// organizations visible to the caller.
	Retrieve(ctx context.Context, query string, orgIDs, fileIDs []int64) ([]knowledge.Candidate, error)
}

// TempRetriever searches a session's temporary collection.
type TempRetriever interface {
	// Retrieve returns candidates for the query from the session's ready
	// uploads among fileIDs. Files still uploading or failed are ignored.
	Retrieve(ctx context.Context, sessionID, query string, fileIDs []string) ([]knowledge.Candidate, error)
}

// GraphRetriever traverses the knowledge graph.
type GraphRetriever interface {
	// Retrieve returns fact candidates and a visualization payload for the
	// query, scoped to the given organizations.
	Retrieve(ctx context.Context, query string, orgIDs []int64) ([]knowledge.Candidate, *graphstore.Payload, error)
}

// retrieveNode runs the vector and temp searches concurrently and merges
// their origin-tagged results. A failing branch is recorded as a reasoning
// step and never aborts the other branch; the evaluator judges whatever
// candidates exist, including none.
func (p *Pipeline) retrieveNode(ctx context.Context, st State) (State, error) {
	var (
		vectorHits []knowledge.Candidate
		tempHits   []knowledge.Candidate
		vectorErr  error
		tempErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorHits, vectorErr = p.vector.Retrieve(gctx, st.Question, st.OrgIDs, st.FileIDs)
		return nil
	})
	if p.temp != nil && st.SessionID != "" && len(st.TempFileIDs) > 0 {
		g.Go(func() error {
			tempHits, tempErr = p.temp.Retrieve(gctx, st.SessionID, st.Question, st.TempFileIDs)
			return nil
		})
	}
	// Branches report failures through their error variables, so Wait only
	// propagates context cancellation.
	if err := g.Wait(); err != nil {
		return st, err
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	if vectorErr != nil {
		log.Errorf("vector retrieval failed: %v", vectorErr)
		st.trace(NodeRetrieve, "Vector search failed, continuing without it.")
	}
	if tempErr != nil {
		log.Errorf("temp retrieval failed: %v", tempErr)
		st.trace(NodeRetrieve, "Session file search failed, continuing without it.")
	}

	st.Candidates = append(st.Candidates, vectorHits...)
	st.Candidates = append(st.Candidates, tempHits...)

	steps := []string{fmt.Sprintf("Found %d knowledge base matches.", len(vectorHits))}
	if len(st.TempFileIDs) > 0 {
		steps = append(steps, fmt.Sprintf("Found %d matches in session files.", len(tempHits)))
	}
	_ = st.emit(event.NewNodeSteps(NodeRetrieve, steps))
	return st, nil
}
