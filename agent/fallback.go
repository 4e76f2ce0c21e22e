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

	"trpc.group/trpc-go/trpc-graphrag-go/event"
)

// fallbackNode produces the deterministic non-answer without invoking the
// model. It empties the citation list so clients drop any stale sources,
// then terminates the workflow.
func (p *Pipeline) fallbackNode(_ context.Context, st State) (State, error) {
	if err := st.emit(event.NewDataSources(nil)); err != nil {
		return st, err
	}
	st.Answer = fallbackAnswer
	st.trace(NodeFallback, "Knowledge base lacks sufficient information for this question.")
	if err := st.emit(event.NewTextContent(fallbackAnswer)); err != nil {
		return st, err
	}
	return st, nil
}
