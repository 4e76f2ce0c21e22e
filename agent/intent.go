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
	"strings"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

// intentNode classifies the request as direct URL summarization or a
// knowledge-base question. Classification failures degrade to the full
// pipeline, never toward silently skipping retrieval.
func (p *Pipeline) intentNode(ctx context.Context, st State) (State, error) {
	st.URLs = ExtractURLs(st.Question)

	switch {
	case len(st.URLs) == 0:
		st.Intent = IntentAnswerQuery
		st.trace(NodeIntent, "No URLs detected, answering from the knowledge base.")
	case len(st.TempFileIDs) > 0:
		// Uploaded files signal a question about them, not about the link.
		st.Intent = IntentAnswerQuery
		st.trace(NodeIntent, "URLs present but session files uploaded, answering from the knowledge base.")
	default:
		st.Intent = p.classifyURLIntent(ctx, &st)
	}

	_ = st.emit(event.NewNodeSteps(NodeIntent, []string{
		fmt.Sprintf("Detected intent: %s", st.Intent),
	}))
	return st, nil
}

// classifyURLIntent asks the model whether the user wants the link
// summarized. Any failure falls back to the full pipeline.
func (p *Pipeline) classifyURLIntent(ctx context.Context, st *State) Intent {
	reply, err := complete(ctx, p.model, []model.Message{
		model.NewUserMessage(fmt.Sprintf(intentPrompt, st.Question)),
	}, &judgmentTemperature)
	if err != nil {
		log.Warnf("intent classification failed, defaulting to knowledge query: %v", err)
		st.trace(NodeIntent, "Intent classification unavailable, answering from the knowledge base.")
		return IntentAnswerQuery
	}

	if strings.Contains(strings.ToUpper(reply), "DIRECT_SUMMARY") {
		st.trace(NodeIntent, "Request classified as direct URL summarization.")
		return IntentSummarizeURL
	}
	st.trace(NodeIntent, "Request classified as a knowledge question.")
	return IntentAnswerQuery
}

// routeIntent is the conditional edge after intent detection.
func routeIntent(_ context.Context, st State) (string, error) {
	if st.Intent == IntentSummarizeURL {
		return string(IntentSummarizeURL), nil
	}
	return string(IntentAnswerQuery), nil
}
