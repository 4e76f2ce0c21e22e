//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package event defines the typed events streamed to chat clients.
//
// A workflow invocation produces one ordered stream of events. Each event is
// serialized as a single JSON object carrying a "type" discriminator; the
// client consumes the stream incrementally to render workflow progress,
// reasoning steps, citations and the answer itself.
package event

import (
	"context"
	"time"
)

// Type is the event type discriminator.
type Type string

// Event types understood by clients.
const (
	// TypeStart announces the workflow instance and its message ID.
	TypeStart Type = "start"
	// TypeNodeStart marks a pipeline stage being entered.
	TypeNodeStart Type = "node-start"
	// TypeNodeEnd marks a pipeline stage being exited.
	TypeNodeEnd Type = "node-end"
	// TypeNodeSteps carries the static reasoning lines contributed by a node.
	TypeNodeSteps Type = "node-steps"
	// TypeDataStep carries one incremental reasoning line.
	TypeDataStep Type = "data-step"
	// TypeLLMToken carries one streamed token from a judgment call,
	// attributable to its originating node.
	TypeLLMToken Type = "llm-token"
	// TypeDataSources carries the final citation list, emitted once before
	// generation begins.
	TypeDataSources Type = "data-sources"
	// TypeGraphData carries the knowledge-graph visualization payload,
	// emitted only when graph retrieval ran.
	TypeGraphData Type = "graph-data"
	// TypeTextDelta carries one streamed answer token.
	TypeTextDelta Type = "text-delta"
	// TypeTextContent carries a full non-streamed answer.
	TypeTextContent Type = "text-content"
	// TypeError reports a terminal node failure; the stream ends after it.
	TypeError Type = "error"
	// TypeFinish is the terminal event on success.
	TypeFinish Type = "finish"
)

// Finish reasons reported with the finish event.
const (
	FinishReasonStop  = "stop"
	FinishReasonError = "error"
)

// Event is one element of the stream.
//
// Only the fields relevant to the event type are populated; everything else
// is omitted from the wire form.
type Event struct {
	// Type is the event type discriminator.
	Type Type `json:"type"`
	// MessageID identifies the workflow invocation (start event).
	MessageID string `json:"messageId,omitempty"`
	// Data is the type-specific payload (node lifecycle, steps, tokens,
	// sources, graph data).
	Data any `json:"data,omitempty"`
	// Content is the text payload for text-delta and text-content events.
	Content string `json:"content,omitempty"`
	// Message is the error message for error events.
	Message string `json:"message,omitempty"`
	// FinishReason is set on the finish event.
	FinishReason string `json:"finishReason,omitempty"`
	// Timestamp is when the event was produced. Informational only.
	Timestamp time.Time `json:"-"`
}

// NodeData is the payload of node-start and node-end events.
type NodeData struct {
	// Node is the pipeline stage identifier.
	Node string `json:"node"`
	// Display is the human-readable stage label.
	Display string `json:"display"`
}

// StepsData is the payload of node-steps events.
type StepsData struct {
	Node  string   `json:"node"`
	Steps []string `json:"steps"`
}

// StepData is the payload of data-step events.
type StepData struct {
	Node string `json:"node"`
	Step string `json:"step"`
}

// TokenData is the payload of llm-token events.
type TokenData struct {
	Node  string `json:"node"`
	Token string `json:"token"`
}

// Source is one entry of the data-sources payload. Entries are ordered by
// citation ordinal; clients match [Source N] markers to this list by
// position.
type Source struct {
	Content  string         `json:"content"`
	SourceID string         `json:"source"`
	Origin   string         `json:"origin"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SourcesData is the payload of data-sources events. Sources is always
// serialized, even when empty, so clients can reset their citation list.
type SourcesData struct {
	Sources []Source `json:"sources"`
}

// New creates an event of the given type.
func New(typ Type) *Event {
	return &Event{Type: typ, Timestamp: time.Now()}
}

// NewStart creates the stream-opening event.
func NewStart(messageID string) *Event {
	e := New(TypeStart)
	e.MessageID = messageID
	return e
}

// NewNodeStart creates a node-start event.
func NewNodeStart(node, display string) *Event {
	e := New(TypeNodeStart)
	e.Data = NodeData{Node: node, Display: display}
	return e
}

// NewNodeEnd creates a node-end event.
func NewNodeEnd(node, display string) *Event {
	e := New(TypeNodeEnd)
	e.Data = NodeData{Node: node, Display: display}
	return e
}

// NewNodeSteps creates a node-steps event.
func NewNodeSteps(node string, steps []string) *Event {
	e := New(TypeNodeSteps)
	e.Data = StepsData{Node: node, Steps: steps}
	return e
}

// NewDataStep creates a data-step event.
func NewDataStep(node, step string) *Event {
	e := New(TypeDataStep)
	e.Data = StepData{Node: node, Step: step}
	return e
}

// NewLLMToken creates an llm-token event.
func NewLLMToken(node, token string) *Event {
	e := New(TypeLLMToken)
	e.Data = TokenData{Node: node, Token: token}
	return e
}

// NewDataSources creates a data-sources event. A nil slice is normalized to
// an empty one.
func NewDataSources(sources []Source) *Event {
	if sources == nil {
		sources = []Source{}
	}
	e := New(TypeDataSources)
	e.Data = SourcesData{Sources: sources}
	return e
}

// NewGraphData creates a graph-data event with the given payload.
func NewGraphData(payload any) *Event {
	e := New(TypeGraphData)
	e.Data = payload
	return e
}

// NewTextDelta creates a text-delta event carrying one answer token.
func NewTextDelta(token string) *Event {
	e := New(TypeTextDelta)
	e.Content = token
	return e
}

// NewTextContent creates a text-content event carrying a full answer.
func NewTextContent(content string) *Event {
	e := New(TypeTextContent)
	e.Content = content
	return e
}

// NewError creates an error event.
func NewError(message string) *Event {
	e := New(TypeError)
	e.Message = message
	return e
}

// NewFinish creates the terminal finish event.
func NewFinish(reason string) *Event {
	e := New(TypeFinish)
	e.FinishReason = reason
	return e
}

// Emit sends an event to the channel, honoring context cancellation.
// It returns ctx.Err() if the caller went away before the event was accepted.
func Emit(ctx context.Context, ch chan<- *Event, evt *Event) error {
	if ch == nil || evt == nil {
		return nil
	}
	select {
	case ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
