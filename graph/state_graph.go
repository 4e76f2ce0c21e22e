//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "fmt"

// StateGraph provides a fluent interface for building graphs.
// This is the primary public API for creating executable graphs.
//
// Example usage:
//
//	g, err := graph.NewStateGraph[myState]().
//	  AddNode("classify", classifyFunc).
//	  AddNode("answer", answerFunc).
//	  AddEdge("classify", "answer").
//	  SetEntryPoint("classify").
//	  SetFinishPoint("answer").
//	  Compile()
//
// The compiled Graph can then be executed with NewExecutor(g).
type StateGraph[S any] struct {
	graph *Graph[S]
	err   error
}

// NewStateGraph creates a new graph builder.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{graph: New[S]()}
}

// AddNode adds a node with the given ID and function. The ID doubles as the
// display name.
func (sg *StateGraph[S]) AddNode(id string, function NodeFunc[S]) *StateGraph[S] {
	return sg.AddNodeWithName(id, id, function)
}

// AddNodeWithName adds a node with a custom display name.
func (sg *StateGraph[S]) AddNodeWithName(id, name string, function NodeFunc[S]) *StateGraph[S] {
	sg.record(sg.graph.AddNode(&Node[S]{ID: id, Name: name, Function: function}))
	return sg
}

// AddEdge adds a normal edge between two nodes.
func (sg *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	sg.record(sg.graph.AddEdge(&Edge{From: from, To: to}))
	return sg
}

// AddConditionalEdges adds conditional routing from a node.
func (sg *StateGraph[S]) AddConditionalEdges(
	from string,
	condition ConditionalFunc[S],
	pathMap map[string]string,
) *StateGraph[S] {
	sg.record(sg.graph.AddConditionalEdge(&ConditionalEdge[S]{
		From:      from,
		Condition: condition,
		PathMap:   pathMap,
	}))
	return sg
}

// SetEntryPoint sets the entry point of the graph.
func (sg *StateGraph[S]) SetEntryPoint(nodeID string) *StateGraph[S] {
	sg.graph.SetEntryPoint(nodeID)
	return sg
}

// SetFinishPoint marks a node as terminal.
// This is equivalent to AddEdge(nodeID, End).
func (sg *StateGraph[S]) SetFinishPoint(nodeID string) *StateGraph[S] {
	return sg.AddEdge(nodeID, End)
}

// Compile validates the graph and returns it for execution.
func (sg *StateGraph[S]) Compile() (*Graph[S], error) {
	if sg.err != nil {
		return nil, fmt.Errorf("invalid graph: %w", sg.err)
	}
	if err := sg.graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return sg.graph, nil
}

// MustCompile compiles the graph or panics if invalid. Intended for static
// workflow definitions wired at startup.
func (sg *StateGraph[S]) MustCompile() *Graph[S] {
	graph, err := sg.Compile()
	if err != nil {
		panic(err)
	}
	return graph
}

// record keeps the first builder error for Compile to report.
func (sg *StateGraph[S]) record(err error) {
	if sg.err == nil && err != nil {
		sg.err = err
	}
}
