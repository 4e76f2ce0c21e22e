//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
)

// EventEmitter is the interface for emitting events from within a NodeFunc.
// The executor binds a node-scoped emitter into the state before each node
// runs; node code uses it for reasoning steps, judgment tokens, citations and
// answer text without touching the raw channel.
type EventEmitter interface {
	// Emit sends an event to the stream. It returns an error only when the
	// consumer went away (context canceled).
	Emit(evt *event.Event) error

	// Node returns the ID of the node this emitter is bound to.
	Node() string

	// Context returns the context associated with this emitter.
	Context() context.Context
}

// eventEmitter is the default implementation of EventEmitter.
type eventEmitter struct {
	ctx       context.Context
	eventChan chan<- *event.Event
	nodeID    string
}

// EventEmitterOption configures an eventEmitter.
type EventEmitterOption func(*eventEmitter)

// WithEmitterContext sets the context for the emitter.
func WithEmitterContext(ctx context.Context) EventEmitterOption {
	return func(e *eventEmitter) {
		e.ctx = ctx
	}
}

// WithEmitterNode sets the node ID the emitter is bound to.
func WithEmitterNode(nodeID string) EventEmitterOption {
	return func(e *eventEmitter) {
		e.nodeID = nodeID
	}
}

// NewEventEmitter creates a new EventEmitter for the given event channel.
// If eventChan is nil, returns a no-op emitter that safely ignores all calls.
func NewEventEmitter(eventChan chan<- *event.Event, opts ...EventEmitterOption) EventEmitter {
	if eventChan == nil {
		return noopEmitter{}
	}
	emitter := &eventEmitter{
		ctx:       context.Background(),
		eventChan: eventChan,
	}
	for _, opt := range opts {
		opt(emitter)
	}
	return emitter
}

// Emit sends an event to the stream.
func (e *eventEmitter) Emit(evt *event.Event) error {
	return event.Emit(e.ctx, e.eventChan, evt)
}

// Node returns the bound node ID.
func (e *eventEmitter) Node() string {
	return e.nodeID
}

// Context returns the emitter context.
func (e *eventEmitter) Context() context.Context {
	return e.ctx
}

// noopEmitter ignores all emit calls. Used when no consumer is attached,
// e.g. synchronous Invoke runs and tests that only care about final state.
type noopEmitter struct{}

func (noopEmitter) Emit(*event.Event) error  { return nil }
func (noopEmitter) Node() string             { return "" }
func (noopEmitter) Context() context.Context { return context.Background() }
