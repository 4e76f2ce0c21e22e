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
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

// generateNode streams the grounded answer. The citation list is emitted
// once, before the first token, and stays frozen for the rest of the stream;
// the context block numbers sources exactly as the list does, so emitted
// [Source N] markers stay within 1..len(Ranked).
func (p *Pipeline) generateNode(ctx context.Context, st State) (State, error) {
	if err := st.emit(event.NewDataSources(sourcesOf(st.Ranked))); err != nil {
		return st, err
	}

	systemPrompt := defaultSystemPrompt
	if st.CustomPrompt != "" {
		systemPrompt = st.CustomPrompt
	}
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s",
		buildContextBlock(st.Ranked), st.Question)

	answer, err := stream(ctx, p.model,
		[]model.Message{
			model.NewSystemMessage(systemPrompt),
			model.NewUserMessage(userPrompt),
		},
		nil,
		func(token string) error {
			return st.emit(event.NewTextDelta(token))
		},
	)
	if err != nil {
		return st, fmt.Errorf("answer generation: %w", err)
	}

	st.Answer = answer
	return st, nil
}

// sourcesOf converts the citation list to its wire form.
func sourcesOf(ranked []RankedSource) []event.Source {
	sources := make([]event.Source, len(ranked))
	for i, rs := range ranked {
		sources[i] = event.Source{
			Content:  rs.Content,
			SourceID: rs.SourceID,
			Origin:   rs.Origin,
			Score:    rs.Score,
			Metadata: rs.Metadata,
		}
	}
	return sources
}
