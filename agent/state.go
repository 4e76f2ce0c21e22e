//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package agent implements the GraphRAG question-answering workflow: intent
// detection, parallel vector and session retrieval, sufficiency evaluation,
// conditional knowledge-graph traversal, reranking with citation ordinals,
// relevance grading, and streamed grounded generation.
package agent

import (
	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/graph"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore"
)

// Workflow node IDs.
const (
	NodeIntent        = "intent"
	NodeSummarize     = "summarize"
	NodeRetrieve      = "retrieve"
	NodeEvaluate      = "evaluate"
	NodeRetrieveGraph = "retrieve_graph"
	NodeRerank        = "rerank"
	NodeGrade         = "grade"
	NodeGenerate      = "generate"
	NodeFallback      = "fallback"
)

// nodeNames maps node IDs to the display labels surfaced in lifecycle events.
var nodeNames = map[string]string{
	NodeIntent:        "Intent Detection",
	NodeSummarize:     "URL Summarization",
	NodeRetrieve:      "Knowledge Retrieval",
	NodeEvaluate:      "Retrieval Evaluation",
	NodeRetrieveGraph: "Graph Traversal",
	NodeRerank:        "Source Reranking",
	NodeGrade:         "Context Grading",
	NodeGenerate:      "Answer Generation",
	NodeFallback:      "Fallback Response",
}

// Intent is the result of intent detection.
type Intent string

// Intents.
const (
	// IntentSummarizeURL short-circuits to direct URL summarization.
	IntentSummarizeURL Intent = "summarize_url"
	// IntentAnswerQuery runs the full retrieval pipeline.
	IntentAnswerQuery Intent = "answer_query"
)

// Verdict is a binary judgment outcome. The zero value means the judgment
// has not run yet.
type Verdict string

// Verdicts.
const (
	VerdictUnset        Verdict = ""
	VerdictSufficient   Verdict = "sufficient"
	VerdictInsufficient Verdict = "insufficient"
	VerdictRelevant     Verdict = "relevant"
	VerdictIrrelevant   Verdict = "irrelevant"
)

// RankedSource is a retrieval candidate with its citation ordinal. Ordinals
// are 1-based and dense; the answer cites sources as [Source N] where N is
// an ordinal of this set.
type RankedSource struct {
	knowledge.Candidate
	// Ordinal is the 1-based citation number, equal to slice index + 1.
	Ordinal int `json:"ordinal"`
}

// State is the workflow state threaded through every node. Exactly one
// invocation owns a State; nodes receive it by value and return the updated
// copy.
type State struct {
	// Question is the original user query.
	Question string
	// OrgIDs scopes retrieval to the given organizations. Nil means all
	// organizations visible to the caller.
	OrgIDs []int64
	// FileIDs optionally restricts vector retrieval to specific documents.
	FileIDs []int64
	// SessionID scopes temporary knowledge.
	SessionID string
	// TempFileIDs references quick-uploaded files for this session.
	TempFileIDs []string
	// CustomPrompt replaces the default system persona when non-empty.
	CustomPrompt string

	// Intent is set by the intent node.
	Intent Intent
	// URLs holds the URLs detected in the question, first one used for
	// direct summarization.
	URLs []string
	// Candidates accumulates retrieval results across nodes.
	Candidates []knowledge.Candidate
	// EvaluatorVerdict is sufficient or insufficient once evaluation ran.
	EvaluatorVerdict Verdict
	// GraderVerdict is relevant or irrelevant once grading ran.
	GraderVerdict Verdict
	// Ranked is the final citation list produced by the reranker.
	Ranked []RankedSource
	// GraphData is the visualization payload when graph traversal ran.
	GraphData *graphstore.Payload
	// Trace is the ordered human-readable reasoning log.
	Trace []string
	// Answer is the final answer text.
	Answer string

	// graphOrgIDs holds the graph-enabled subset of the requested
	// organizations, resolved during evaluation. Empty means graph
	// traversal must not run.
	graphOrgIDs []int64

	// emitter is bound by the executor before each node runs.
	emitter graph.EventEmitter
}

// bindEmitter is the executor binder injecting the node-scoped emitter.
func bindEmitter(s State, emitter graph.EventEmitter) State {
	s.emitter = emitter
	return s
}

// emit sends an event through the bound emitter. Safe before binding.
func (s *State) emit(evt *event.Event) error {
	if s.emitter == nil {
		return nil
	}
	return s.emitter.Emit(evt)
}

// trace appends one reasoning line and mirrors it as a data-step event.
func (s *State) trace(node, line string) {
	s.Trace = append(s.Trace, line)
	_ = s.emit(event.NewDataStep(node, line))
}
