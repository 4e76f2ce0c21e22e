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
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

const (
	judgmentMaxSnippets = 8
	judgmentMaxChars    = 800
)

// Routing keys for the evaluator's conditional edge.
const (
	routeGraph  = "graph"
	routeRerank = "rerank"
)

// evaluateNode judges whether the primary retrieval results suffice to
// answer. Zero candidates are always insufficient without a judgment call;
// a failing judgment call also defaults to insufficient, paying for more
// retrieval rather than answering on less evidence.
func (p *Pipeline) evaluateNode(ctx context.Context, st State) (State, error) {
	if len(st.Candidates) == 0 {
		st.EvaluatorVerdict = VerdictInsufficient
		st.trace(NodeEvaluate, "No candidates retrieved, escalating to graph traversal.")
	} else {
		st.EvaluatorVerdict = p.judgeSufficiency(ctx, &st)
	}

	if st.EvaluatorVerdict == VerdictInsufficient {
		st.graphOrgIDs = p.resolveGraphOrgs(ctx, st.OrgIDs)
		if len(st.graphOrgIDs) == 0 {
			st.trace(NodeEvaluate, "Graph traversal not available for the requested organizations.")
		}
	}

	_ = st.emit(event.NewNodeSteps(NodeEvaluate, []string{
		fmt.Sprintf("Retrieved context judged %s.", st.EvaluatorVerdict),
	}))
	return st, nil
}

// judgeSufficiency runs the streamed YES/NO judgment call.
func (p *Pipeline) judgeSufficiency(ctx context.Context, st *State) Verdict {
	prompt := fmt.Sprintf(evaluatorPrompt, st.Question,
		snippetBlock(st.Candidates, judgmentMaxSnippets, judgmentMaxChars))

	reply, err := stream(ctx, p.model,
		[]model.Message{model.NewUserMessage(prompt)},
		&judgmentTemperature,
		func(token string) error {
			return st.emit(event.NewLLMToken(NodeEvaluate, token))
		},
	)
	if err != nil {
		log.Warnf("sufficiency judgment failed, defaulting to insufficient: %v", err)
		st.trace(NodeEvaluate, "Sufficiency judgment unavailable, escalating to graph traversal.")
		return VerdictInsufficient
	}

	yes, ok := parseYesNo(reply)
	if !ok {
		st.trace(NodeEvaluate, "Sufficiency judgment unreadable, escalating to graph traversal.")
		return VerdictInsufficient
	}
	if r := rationale(reply); r != "" {
		st.trace(NodeEvaluate, r)
	}
	if yes {
		return VerdictSufficient
	}
	return VerdictInsufficient
}

// resolveGraphOrgs returns the graph-enabled subset of the requested
// organizations. Gate lookup failures disable traversal for this request.
func (p *Pipeline) resolveGraphOrgs(ctx context.Context, orgIDs []int64) []int64 {
	if p.graph == nil || p.orgs == nil {
		return nil
	}
	enabled, err := p.orgs.GraphEnabledOrgs(ctx, orgIDs)
	if err != nil {
		log.Errorf("organization gate lookup failed: %v", err)
		return nil
	}
	return enabled
}

// routeEvaluator is the conditional edge after evaluation. Graph traversal
// runs only on an insufficient verdict for graph-enabled organizations.
func routeEvaluator(_ context.Context, st State) (string, error) {
	if st.EvaluatorVerdict == VerdictInsufficient && len(st.graphOrgIDs) > 0 {
		return routeGraph, nil
	}
	return routeRerank, nil
}
