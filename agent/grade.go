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

// Routing keys for the grader's conditional edge.
const (
	routeGenerate = "generate"
	routeFallback = "fallback"
)

// gradeNode judges whether the reranked context is actually on-topic for the
// question. The evaluator asked "is there enough to try"; the grader asks
// "is what we ended up with about the right thing". Judgment failures
// default to irrelevant so a broken grader yields the safe non-answer
// instead of an ungrounded one.
func (p *Pipeline) gradeNode(ctx context.Context, st State) (State, error) {
	if len(st.Ranked) == 0 {
		st.GraderVerdict = VerdictIrrelevant
		st.trace(NodeGrade, "No sources survived reranking.")
	} else {
		st.GraderVerdict = p.judgeRelevance(ctx, &st)
	}

	_ = st.emit(event.NewNodeSteps(NodeGrade, []string{
		fmt.Sprintf("Final context judged %s.", st.GraderVerdict),
	}))
	return st, nil
}

// judgeRelevance runs the streamed YES/NO judgment call.
func (p *Pipeline) judgeRelevance(ctx context.Context, st *State) Verdict {
	prompt := fmt.Sprintf(graderPrompt, st.Question, buildContextBlock(st.Ranked))

	reply, err := stream(ctx, p.model,
		[]model.Message{model.NewUserMessage(prompt)},
		&judgmentTemperature,
		func(token string) error {
			return st.emit(event.NewLLMToken(NodeGrade, token))
		},
	)
	if err != nil {
		log.Warnf("relevance judgment failed, defaulting to irrelevant: %v", err)
		st.trace(NodeGrade, "Relevance judgment unavailable, declining to answer.")
		return VerdictIrrelevant
	}

	yes, ok := parseYesNo(reply)
	if !ok {
		st.trace(NodeGrade, "Relevance judgment unreadable, declining to answer.")
		return VerdictIrrelevant
	}
	if r := rationale(reply); r != "" {
		st.trace(NodeGrade, r)
	}
	if yes {
		return VerdictRelevant
	}
	return VerdictIrrelevant
}

// routeGrader is the conditional edge after grading.
func routeGrader(_ context.Context, st State) (string, error) {
	if st.GraderVerdict == VerdictRelevant {
		return routeGenerate, nil
	}
	return routeFallback, nil
}
