//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, evt *Event) map[string]any {
	t.Helper()
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEventWireShapes(t *testing.T) {
	tests := []struct {
		name string
		evt  *Event
		want map[string]any
	}{
		{
			name: "start",
			evt:  NewStart("msg-42"),
			want: map[string]any{"type": "start", "messageId": "msg-42"},
		},
		{
			name: "node start",
			evt:  NewNodeStart("rerank", "Source Reranking"),
			want: map[string]any{
				"type": "node-start",
				"data": map[string]any{"node": "rerank", "display": "Source Reranking"},
			},
		},
		{
			name: "data step",
			evt:  NewDataStep("evaluate", "Context judged sufficient."),
			want: map[string]any{
				"type": "data-step",
				"data": map[string]any{"node": "evaluate", "step": "Context judged sufficient."},
			},
		},
		{
			name: "llm token",
			evt:  NewLLMToken("grade", "YES"),
			want: map[string]any{
				"type": "llm-token",
				"data": map[string]any{"node": "grade", "token": "YES"},
			},
		},
		{
			name: "text delta",
			evt:  NewTextDelta("hello"),
			want: map[string]any{"type": "text-delta", "content": "hello"},
		},
		{
			name: "error",
			evt:  NewError("node generate: boom"),
			want: map[string]any{"type": "error", "message": "node generate: boom"},
		},
		{
			name: "finish",
			evt:  NewFinish(FinishReasonStop),
			want: map[string]any{"type": "finish", "finishReason": "stop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, marshal(t, tt.evt))
		})
	}
}

func TestDataSourcesAlwaysSerializesList(t *testing.T) {
	// A nil slice still goes out as an empty array so clients can reset
	// their citation list.
	m := marshal(t, NewDataSources(nil))
	data, ok := m["data"].(map[string]any)
	require.True(t, ok)
	sources, ok := data["sources"].([]any)
	require.True(t, ok)
	assert.Empty(t, sources)

	m = marshal(t, NewDataSources([]Source{
		{Content: "BOI is ...", SourceID: "doc-1", Origin: "vector", Score: 0.9},
	}))
	data = m["data"].(map[string]any)
	sources = data["sources"].([]any)
	require.Len(t, sources, 1)
	first := sources[0].(map[string]any)
	assert.Equal(t, "doc-1", first["source"])
	assert.Equal(t, "vector", first["origin"])
}

func TestEmitHonorsContext(t *testing.T) {
	ch := make(chan *Event, 1)
	require.NoError(t, Emit(context.Background(), ch, New(TypeStart)))

	// Channel full and context canceled: Emit must not block.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Emit(ctx, ch, New(TypeFinish))
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, Emit(context.Background(), nil, New(TypeStart)))
}

func TestEventTimestampNotSerialized(t *testing.T) {
	evt := NewStart("m")
	require.False(t, evt.Timestamp.IsZero())
	require.WithinDuration(t, time.Now(), evt.Timestamp, time.Minute)
	_, ok := marshal(t, evt)["timestamp"]
	assert.False(t, ok)
}
