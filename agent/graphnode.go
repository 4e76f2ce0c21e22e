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

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
)

// retrieveGraphNode runs the knowledge-graph traversal. It is reached only
// for graph-enabled organizations after an insufficient verdict. A traversal
// failure is recorded and the pipeline continues with the candidates it has.
func (p *Pipeline) retrieveGraphNode(ctx context.Context, st State) (State, error) {
	candidates, payload, err := p.graph.Retrieve(ctx, st.Question, st.graphOrgIDs)
	if err != nil {
		if ctx.Err() != nil {
			return st, ctx.Err()
		}
		log.Errorf("graph retrieval failed: %v", err)
		st.trace(NodeRetrieveGraph, "Graph traversal failed, continuing with existing candidates.")
		return st, nil
	}

	st.Candidates = append(st.Candidates, candidates...)
	if payload != nil && len(payload.Nodes) > 0 {
		st.GraphData = payload
		_ = st.emit(event.NewGraphData(payload))
	}

	_ = st.emit(event.NewNodeSteps(NodeRetrieveGraph, []string{
		fmt.Sprintf("Graph traversal contributed %d facts.", len(candidates)),
	}))
	return st, nil
}
