//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package graph provides graph-based workflow execution similar to LangGraph.
//
// A Graph is a static transition table over named nodes. Nodes transform a
// typed state; plain edges chain nodes unconditionally and conditional edges
// route on the state produced by the source node. Graphs are compiled once
// via StateGraph and executed per request by an Executor.
package graph

import (
	"context"
	"fmt"
	"sync"
)

// Reserved node IDs.
const (
	// Start is the virtual entry node of every graph.
	Start = "__start__"
	// End is the virtual terminal node of every graph.
	End = "__end__"
)

// NodeFunc transforms the state. It returns the next state or an error that
// aborts the workflow.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// ConditionalFunc selects the next node ID based on the current state.
type ConditionalFunc[S any] func(ctx context.Context, state S) (string, error)

// Node represents a node in the graph.
type Node[S any] struct {
	// ID is the unique identifier of the node.
	ID string
	// Name is the human-readable display name, surfaced in lifecycle events.
	Name string
	// Function is the state transformation to execute.
	Function NodeFunc[S]
}

// Edge represents an unconditional edge in the graph.
type Edge struct {
	// From is the source node ID.
	From string
	// To is the target node ID.
	To string
}

// ConditionalEdge routes from a node based on its output state.
type ConditionalEdge[S any] struct {
	// From is the source node ID.
	From string
	// Condition selects a key of PathMap.
	Condition ConditionalFunc[S]
	// PathMap maps condition results to target node IDs.
	PathMap map[string]string
}

// Graph is a compiled, immutable workflow definition. It is safe for
// concurrent use by any number of executors.
type Graph[S any] struct {
	mu               sync.RWMutex
	nodes            map[string]*Node[S]
	edges            map[string]*Edge
	conditionalEdges map[string]*ConditionalEdge[S]
	entryPoint       string
}

// New creates a new empty graph. Most callers should use NewStateGraph
// instead and let Compile validate the result.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:            make(map[string]*Node[S]),
		edges:            make(map[string]*Edge),
		conditionalEdges: make(map[string]*ConditionalEdge[S]),
	}
}

// AddNode adds a node to the graph.
func (g *Graph[S]) AddNode(node *Node[S]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if node.ID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if node.ID == Start || node.ID == End {
		return fmt.Errorf("node ID %s is reserved", node.ID)
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("node with ID %s already exists", node.ID)
	}
	if node.Function == nil {
		return fmt.Errorf("node %s has no function", node.ID)
	}
	g.nodes[node.ID] = node
	return nil
}

// AddEdge adds an unconditional edge. A node has either one unconditional
// edge or one conditional edge, never both.
func (g *Graph[S]) AddEdge(edge *Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if edge.From == "" || edge.To == "" {
		return fmt.Errorf("edge from and to cannot be empty")
	}
	if _, exists := g.edges[edge.From]; exists {
		return fmt.Errorf("node %s already has an outgoing edge", edge.From)
	}
	if _, exists := g.conditionalEdges[edge.From]; exists {
		return fmt.Errorf("node %s already has conditional routing", edge.From)
	}
	g.edges[edge.From] = edge
	return nil
}

// AddConditionalEdge adds conditional routing from a node.
func (g *Graph[S]) AddConditionalEdge(edge *ConditionalEdge[S]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if edge.From == "" {
		return fmt.Errorf("conditional edge from cannot be empty")
	}
	if edge.Condition == nil || len(edge.PathMap) == 0 {
		return fmt.Errorf("conditional edge from %s needs a condition and a path map", edge.From)
	}
	if _, exists := g.edges[edge.From]; exists {
		return fmt.Errorf("node %s already has an outgoing edge", edge.From)
	}
	if _, exists := g.conditionalEdges[edge.From]; exists {
		return fmt.Errorf("node %s already has conditional routing", edge.From)
	}
	g.conditionalEdges[edge.From] = edge
	return nil
}

// SetEntryPoint sets the node executed first.
func (g *Graph[S]) SetEntryPoint(nodeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entryPoint = nodeID
}

// EntryPoint returns the entry node ID.
func (g *Graph[S]) EntryPoint() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entryPoint
}

// Node returns a node by ID.
func (g *Graph[S]) Node(id string) (*Node[S], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, exists := g.nodes[id]
	return node, exists
}

// NextNode resolves the successor of the given node for the given state.
func (g *Graph[S]) NextNode(ctx context.Context, nodeID string, state S) (string, error) {
	g.mu.RLock()
	edge := g.edges[nodeID]
	condEdge := g.conditionalEdges[nodeID]
	g.mu.RUnlock()

	if edge != nil {
		return edge.To, nil
	}
	if condEdge != nil {
		result, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("condition at node %s: %w", nodeID, err)
		}
		target, ok := condEdge.PathMap[result]
		if !ok {
			return "", fmt.Errorf("%w: node %s result %q", ErrNoRouteForResult, nodeID, result)
		}
		return target, nil
	}
	return "", fmt.Errorf("%w: node %s", ErrNoOutgoingEdge, nodeID)
}

// Validate checks the graph structure: an entry point exists, every edge
// target is a known node, every node reaches End.
func (g *Graph[S]) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.entryPoint == "" {
		return ErrEntryPointNotSet
	}
	if _, exists := g.nodes[g.entryPoint]; !exists {
		return fmt.Errorf("entry point %s is not a known node", g.entryPoint)
	}

	targets := func(nodeID string) []string {
		if edge, ok := g.edges[nodeID]; ok {
			return []string{edge.To}
		}
		if condEdge, ok := g.conditionalEdges[nodeID]; ok {
			out := make([]string, 0, len(condEdge.PathMap))
			for _, to := range condEdge.PathMap {
				out = append(out, to)
			}
			return out
		}
		return nil
	}

	for id := range g.nodes {
		tos := targets(id)
		if len(tos) == 0 {
			return fmt.Errorf("node %s has no outgoing edge and is not %s", id, End)
		}
		for _, to := range tos {
			if to == End {
				continue
			}
			if _, exists := g.nodes[to]; !exists {
				return fmt.Errorf("edge from %s targets unknown node %s", id, to)
			}
		}
	}

	// Reachability from the entry point.
	visited := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if id == End || visited[id] {
			return
		}
		visited[id] = true
		for _, to := range targets(id) {
			visit(to)
		}
	}
	visit(g.entryPoint)
	for id := range g.nodes {
		if !visited[id] {
			return fmt.Errorf("node %s is not reachable from the entry point", id)
		}
	}
	return nil
}
