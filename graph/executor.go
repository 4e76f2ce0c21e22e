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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
)

const (
	defaultChannelBufferSize = 64
	defaultMaxSteps          = 50

	instrumentationName = "trpc.group/trpc-go/trpc-graphrag-go/graph"
)

// EmitterBinder injects a node-scoped emitter into the state before the node
// function runs. States that carry no emitter can leave this nil.
type EmitterBinder[S any] func(state S, emitter EventEmitter) S

// Executor runs a compiled graph. One Executor serves any number of
// concurrent invocations; all per-invocation data lives in the state.
type Executor[S any] struct {
	graph             *Graph[S]
	channelBufferSize int
	maxSteps          int
	binder            EmitterBinder[S]
	tracer            trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption[S any] func(*Executor[S])

// WithChannelBufferSize sets the event channel buffer size.
func WithChannelBufferSize[S any](size int) ExecutorOption[S] {
	return func(e *Executor[S]) {
		if size > 0 {
			e.channelBufferSize = size
		}
	}
}

// WithMaxSteps caps the number of node executions per invocation.
func WithMaxSteps[S any](steps int) ExecutorOption[S] {
	return func(e *Executor[S]) {
		if steps > 0 {
			e.maxSteps = steps
		}
	}
}

// WithEmitterBinder sets the function that binds a node-scoped emitter into
// the state.
func WithEmitterBinder[S any](binder EmitterBinder[S]) ExecutorOption[S] {
	return func(e *Executor[S]) {
		e.binder = binder
	}
}

// NewExecutor creates an executor for the given compiled graph.
func NewExecutor[S any](graph *Graph[S], opts ...ExecutorOption[S]) *Executor[S] {
	e := &Executor[S]{
		graph:             graph,
		channelBufferSize: defaultChannelBufferSize,
		maxSteps:          defaultMaxSteps,
		tracer:            otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the graph asynchronously and returns the event stream.
//
// The stream opens with a start event carrying messageID, brackets every node
// with node-start/node-end, and terminates with either a finish event (the
// graph reached End) or an error event (a node failed). The channel is closed
// in all cases, including context cancellation.
func (e *Executor[S]) Execute(ctx context.Context, initialState S, messageID string) (<-chan *event.Event, error) {
	if e.graph.EntryPoint() == "" {
		return nil, ErrEntryPointNotSet
	}

	eventChan := make(chan *event.Event, e.channelBufferSize)
	go func() {
		defer close(eventChan)

		if err := event.Emit(ctx, eventChan, event.NewStart(messageID)); err != nil {
			return
		}
		if _, err := e.run(ctx, initialState, eventChan); err != nil {
			if ctx.Err() != nil {
				log.Debugf("workflow %s canceled: %v", messageID, ctx.Err())
				return
			}
			log.Errorf("workflow %s failed: %v", messageID, err)
			_ = event.Emit(ctx, eventChan, event.NewError(err.Error()))
			return
		}
		_ = event.Emit(ctx, eventChan, event.NewFinish(event.FinishReasonStop))
	}()
	return eventChan, nil
}

// Invoke runs the graph synchronously and returns the final state. No events
// are emitted; nodes observe a no-op emitter.
func (e *Executor[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return e.run(ctx, initialState, nil)
}

// run walks the transition table from the entry point until End.
func (e *Executor[S]) run(ctx context.Context, state S, eventChan chan<- *event.Event) (S, error) {
	current := e.graph.EntryPoint()

	for step := 0; current != End; step++ {
		if step >= e.maxSteps {
			return state, fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, e.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := e.graph.Node(current)
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		next, err := e.executeNode(ctx, node, &state, eventChan)
		if err != nil {
			return state, err
		}
		current = next
	}
	return state, nil
}

// executeNode runs one node, bracketed by lifecycle events and a span, and
// resolves the successor.
func (e *Executor[S]) executeNode(
	ctx context.Context,
	node *Node[S],
	state *S,
	eventChan chan<- *event.Event,
) (string, error) {
	ctx, span := e.tracer.Start(ctx, "graph.node."+node.ID)
	defer span.End()

	if err := event.Emit(ctx, eventChan, event.NewNodeStart(node.ID, node.Name)); err != nil {
		return "", err
	}
	if e.binder != nil {
		emitter := NewEventEmitter(eventChan,
			WithEmitterContext(ctx),
			WithEmitterNode(node.ID),
		)
		*state = e.binder(*state, emitter)
	}

	log.Debugf("executing node %s", node.ID)
	newState, err := node.Function(ctx, *state)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("node %s: %w", node.ID, err)
	}
	*state = newState

	if err := event.Emit(ctx, eventChan, event.NewNodeEnd(node.ID, node.Name)); err != nil {
		return "", err
	}
	return e.graph.NextNode(ctx, node.ID, *state)
}
