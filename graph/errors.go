//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "errors"

var (
	// ErrEntryPointNotSet indicates the graph was compiled without an entry point.
	ErrEntryPointNotSet = errors.New("entry point not set")
	// ErrNodeNotFound indicates a transition targeted an unknown node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNoOutgoingEdge indicates a non-terminal node without routing.
	ErrNoOutgoingEdge = errors.New("no outgoing edge")
	// ErrNoRouteForResult indicates a conditional result missing from the path map.
	ErrNoRouteForResult = errors.New("no route for condition result")
	// ErrMaxStepsExceeded indicates the executor hit its step limit, which
	// points at a cycle the static validation cannot rule out.
	ErrMaxStepsExceeded = errors.New("max steps exceeded")
)
