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
	"sort"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
)

// defaultTopK is the default size of the citation list.
const defaultTopK = 5

// Rerank merges candidates from all origins into the authoritative citation
// list: dedupe by source ID keeping the highest score, sort by score
// descending with ties broken by origin (graph beats vector beats temp),
// truncate to topK, number 1..N. Ordinals are dense and final; they are
// never reassigned once generation starts.
func Rerank(candidates []knowledge.Candidate, topK int) []RankedSource {
	if topK <= 0 {
		topK = defaultTopK
	}

	best := make(map[string]knowledge.Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		prev, seen := best[c.SourceID]
		if !seen {
			order = append(order, c.SourceID)
			best[c.SourceID] = c
			continue
		}
		if c.Score > prev.Score {
			best[c.SourceID] = c
		}
	}

	merged := make([]knowledge.Candidate, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return knowledge.OriginPriority(merged[i].Origin) < knowledge.OriginPriority(merged[j].Origin)
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	ranked := make([]RankedSource, len(merged))
	for i, c := range merged {
		ranked[i] = RankedSource{Candidate: c, Ordinal: i + 1}
	}
	return ranked
}

// rerankNode applies Rerank to the accumulated candidates.
func (p *Pipeline) rerankNode(_ context.Context, st State) (State, error) {
	st.Ranked = Rerank(st.Candidates, p.topK)
	st.trace(NodeRerank, fmt.Sprintf("Selected %d sources from %d candidates.",
		len(st.Ranked), len(st.Candidates)))
	_ = st.emit(event.NewNodeSteps(NodeRerank, []string{
		fmt.Sprintf("Ranked top %d sources.", len(st.Ranked)),
	}))
	return st, nil
}
