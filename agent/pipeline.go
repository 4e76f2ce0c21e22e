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
	"errors"
	"net/http"
	"time"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/graph"
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

// OrganizationGate exposes which organizations allow graph traversal.
type OrganizationGate interface {
	// GraphEnabledOrgs returns the graph-enabled subset of orgIDs. Nil
	// orgIDs means all organizations visible to the caller.
	GraphEnabledOrgs(ctx context.Context, orgIDs []int64) ([]int64, error)
}

// Request is one question to answer.
type Request struct {
	// Message is the user's question.
	Message string `json:"message"`
	// OrgIDs scopes retrieval. Nil means all organizations visible to the
	// caller.
	OrgIDs []int64 `json:"org_ids"`
	// FileIDs optionally restricts vector retrieval to specific documents.
	FileIDs []int64 `json:"file_ids"`
	// CustomPrompt replaces the default system persona when non-empty.
	CustomPrompt string `json:"custom_prompt"`
	// SessionID scopes temporary knowledge.
	SessionID string `json:"session_id"`
	// TempFileIDs references quick-uploaded files for this session.
	TempFileIDs []string `json:"temp_file_ids"`
}

// Pipeline is the compiled GraphRAG workflow. One Pipeline serves any number
// of concurrent requests; all per-request data lives in the State.
type Pipeline struct {
	model      model.Model
	vector     VectorRetriever
	temp       TempRetriever
	graph      GraphRetriever
	orgs       OrganizationGate
	topK       int
	httpClient *http.Client
	executor   *graph.Executor[State]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTempRetriever sets the session temporary-knowledge retriever.
func WithTempRetriever(temp TempRetriever) Option {
	return func(p *Pipeline) {
		p.temp = temp
	}
}

// WithGraphRetriever sets the knowledge-graph retriever and its
// organization gate. Traversal runs only for organizations the gate
// reports as graph-enabled.
func WithGraphRetriever(g GraphRetriever, gate OrganizationGate) Option {
	return func(p *Pipeline) {
		p.graph = g
		p.orgs = gate
	}
}

// WithTopK sets the citation list size.
func WithTopK(topK int) Option {
	return func(p *Pipeline) {
		if topK > 0 {
			p.topK = topK
		}
	}
}

// WithHTTPClient sets the client used for URL summarization fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// New creates a Pipeline around a chat model and a vector retriever; both
// are mandatory. The workflow graph is compiled once here and reused for
// every request.
func New(m model.Model, vector VectorRetriever, opts ...Option) (*Pipeline, error) {
	if m == nil {
		return nil, errors.New("model is required")
	}
	if vector == nil {
		return nil, errors.New("vector retriever is required")
	}

	p := &Pipeline{
		model:      m,
		vector:     vector,
		topK:       defaultTopK,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}

	wf, err := graph.NewStateGraph[State]().
		AddNodeWithName(NodeIntent, nodeNames[NodeIntent], p.intentNode).
		AddNodeWithName(NodeSummarize, nodeNames[NodeSummarize], p.summarizeNode).
		AddNodeWithName(NodeRetrieve, nodeNames[NodeRetrieve], p.retrieveNode).
		AddNodeWithName(NodeEvaluate, nodeNames[NodeEvaluate], p.evaluateNode).
		AddNodeWithName(NodeRetrieveGraph, nodeNames[NodeRetrieveGraph], p.retrieveGraphNode).
		AddNodeWithName(NodeRerank, nodeNames[NodeRerank], p.rerankNode).
		AddNodeWithName(NodeGrade, nodeNames[NodeGrade], p.gradeNode).
		AddNodeWithName(NodeGenerate, nodeNames[NodeGenerate], p.generateNode).
		AddNodeWithName(NodeFallback, nodeNames[NodeFallback], p.fallbackNode).
		SetEntryPoint(NodeIntent).
		AddConditionalEdges(NodeIntent, routeIntent, map[string]string{
			string(IntentSummarizeURL): NodeSummarize,
			string(IntentAnswerQuery):  NodeRetrieve,
		}).
		AddEdge(NodeRetrieve, NodeEvaluate).
		AddConditionalEdges(NodeEvaluate, routeEvaluator, map[string]string{
			routeGraph:  NodeRetrieveGraph,
			routeRerank: NodeRerank,
		}).
		AddEdge(NodeRetrieveGraph, NodeRerank).
		AddEdge(NodeRerank, NodeGrade).
		AddConditionalEdges(NodeGrade, routeGrader, map[string]string{
			routeGenerate: NodeGenerate,
			routeFallback: NodeFallback,
		}).
		SetFinishPoint(NodeSummarize).
		SetFinishPoint(NodeGenerate).
		SetFinishPoint(NodeFallback).
		Compile()
	if err != nil {
		return nil, err
	}

	p.executor = graph.NewExecutor(wf, graph.WithEmitterBinder[State](bindEmitter))
	return p, nil
}

// Run executes the workflow asynchronously and returns its event stream.
// The stream terminates with finish on success or error on a terminal node
// failure; the channel is closed in all cases.
func (p *Pipeline) Run(ctx context.Context, req *Request, messageID string) (<-chan *event.Event, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	return p.executor.Execute(ctx, stateOf(req), messageID)
}

// Invoke executes the workflow synchronously and returns the final state.
// Intended for tests and non-streaming callers.
func (p *Pipeline) Invoke(ctx context.Context, req *Request) (State, error) {
	if err := validate(req); err != nil {
		return State{}, err
	}
	return p.executor.Invoke(ctx, stateOf(req))
}

func validate(req *Request) error {
	if req == nil || req.Message == "" {
		return errors.New("message is required")
	}
	if len(req.TempFileIDs) > 0 && req.SessionID == "" {
		return errors.New("temp_file_ids require a session_id")
	}
	return nil
}

func stateOf(req *Request) State {
	return State{
		Question:     req.Message,
		OrgIDs:       req.OrgIDs,
		FileIDs:      req.FileIDs,
		SessionID:    req.SessionID,
		TempFileIDs:  req.TempFileIDs,
		CustomPrompt: req.CustomPrompt,
	}
}
