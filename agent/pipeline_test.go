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
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore"
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

// stubModel scripts every LLM seam of the pipeline. Requests are routed by
// prompt shape, mirroring how each node phrases its call.
type stubModel struct {
	intentReply string
	evalReply   string
	gradeReply  string
	answer      string
	summary     string
}

func (m *stubModel) Info() model.Info { return model.Info{Name: "stub"} }

func (m *stubModel) GenerateContent(_ context.Context, req *model.Request) (<-chan *model.Response, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	var reply string
	switch {
	case strings.Contains(prompt, "DIRECT_SUMMARY"):
		reply = m.intentReply
	case strings.Contains(prompt, "sufficient to answer"):
		reply = m.evalReply
	case strings.Contains(prompt, "relevant to a question"):
		reply = m.gradeReply
	case strings.Contains(prompt, "web page content"):
		reply = m.summary
	default:
		reply = m.answer
	}
	if reply == "" {
		return nil, errors.New("stub has no reply for this prompt")
	}
	return respond(reply, req.Stream), nil
}

// respond emits the reply word by word when streaming, then the final
// response.
func respond(text string, streaming bool) <-chan *model.Response {
	ch := make(chan *model.Response, len(text)+2)
	if streaming {
		for _, word := range strings.SplitAfter(text, " ") {
			ch <- &model.Response{
				IsPartial: true,
				Choices: []model.Choice{{
					Delta: model.Message{Role: model.RoleAssistant, Content: word},
				}},
			}
		}
	}
	ch <- &model.Response{
		Done: true,
		Choices: []model.Choice{{
			Message: model.Message{Role: model.RoleAssistant, Content: text},
		}},
	}
	close(ch)
	return ch
}

type stubVector struct {
	mu         sync.Mutex
	candidates []knowledge.Candidate
	err        error
	calls      int
}

func (s *stubVector) Retrieve(_ context.Context, _ string, _, _ []int64) ([]knowledge.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.candidates, s.err
}

type stubTemp struct {
	mu         sync.Mutex
	candidates []knowledge.Candidate
	sessionIDs []string
}

func (s *stubTemp) Retrieve(_ context.Context, sessionID, _ string, _ []string) ([]knowledge.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionIDs = append(s.sessionIDs, sessionID)
	return s.candidates, nil
}

type stubGraph struct {
	mu         sync.Mutex
	candidates []knowledge.Candidate
	payload    *graphstore.Payload
	calls      int
	orgIDs     [][]int64
}

func (s *stubGraph) Retrieve(_ context.Context, _ string, orgIDs []int64) ([]knowledge.Candidate, *graphstore.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.orgIDs = append(s.orgIDs, orgIDs)
	return s.candidates, s.payload, nil
}

type stubGate struct {
	enabled map[int64]bool
}

func (s *stubGate) GraphEnabledOrgs(_ context.Context, orgIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range orgIDs {
		if s.enabled[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func drain(t *testing.T, events <-chan *event.Event) []*event.Event {
	t.Helper()
	var out []*event.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, evt)
		case <-timeout:
			t.Fatal("timed out draining event stream")
		}
	}
}

func typesOf(events []*event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, evt := range events {
		out[i] = evt.Type
	}
	return out
}

func nodeSequence(events []*event.Event) []string {
	var out []string
	for _, evt := range events {
		if evt.Type != event.TypeNodeStart && evt.Type != event.TypeNodeEnd {
			continue
		}
		data := evt.Data.(event.NodeData)
		out = append(out, string(evt.Type)+":"+data.Node)
	}
	return out
}

func sourcesEvent(t *testing.T, events []*event.Event) event.SourcesData {
	t.Helper()
	for _, evt := range events {
		if evt.Type == event.TypeDataSources {
			return evt.Data.(event.SourcesData)
		}
	}
	t.Fatal("no data-sources event in stream")
	return event.SourcesData{}
}

func answerText(events []*event.Event) string {
	var b strings.Builder
	for _, evt := range events {
		switch evt.Type {
		case event.TypeTextDelta, event.TypeTextContent:
			b.WriteString(evt.Content)
		}
	}
	return b.String()
}

func TestPipelineSufficientPath(t *testing.T) {
	vector := &stubVector{candidates: []knowledge.Candidate{
		candidate("doc-1", knowledge.OriginVector, 0.90),
		candidate("doc-2", knowledge.OriginVector, 0.85),
		candidate("doc-3", knowledge.OriginVector, 0.70),
	}}
	graph := &stubGraph{}
	p, err := New(
		&stubModel{
			evalReply:  "YES\nThe snippets cover the question.",
			gradeReply: "YES\nOn topic.",
			answer:     "BOI means beneficial ownership information [Source 1].",
		},
		vector,
		WithGraphRetriever(graph, &stubGate{enabled: map[int64]bool{1: true}}),
	)
	require.NoError(t, err)

	events, err := p.Run(context.Background(), &Request{
		Message: "What is BOI?",
		OrgIDs:  []int64{1},
	}, "msg-1")
	require.NoError(t, err)
	all := drain(t, events)

	types := typesOf(all)
	assert.Equal(t, event.TypeStart, types[0])
	assert.Equal(t, event.TypeFinish, types[len(types)-1])
	assert.NotContains(t, types, event.TypeGraphData)
	assert.NotContains(t, types, event.TypeError)
	assert.Equal(t, 0, graph.calls)

	assert.Len(t, sourcesEvent(t, all).Sources, 3)
	assert.Contains(t, answerText(all), "[Source 1]")

	assert.Equal(t, []string{
		"node-start:intent", "node-end:intent",
		"node-start:retrieve", "node-end:retrieve",
		"node-start:evaluate", "node-end:evaluate",
		"node-start:rerank", "node-end:rerank",
		"node-start:grade", "node-end:grade",
		"node-start:generate", "node-end:generate",
	}, nodeSequence(all))
}

func TestPipelineInsufficientGraphPath(t *testing.T) {
	vector := &stubVector{candidates: []knowledge.Candidate{
		candidate("doc-1", knowledge.OriginVector, 0.30),
		candidate("doc-2", knowledge.OriginVector, 0.25),
	}}
	graph := &stubGraph{
		candidates: []knowledge.Candidate{
			candidate("fact-1", knowledge.OriginGraph, 0.80),
			candidate("fact-2", knowledge.OriginGraph, 0.80),
		},
		payload: &graphstore.Payload{
			Nodes: []graphstore.Node{{ID: "n1", Label: "BOI"}, {ID: "n2", Label: "FinCEN"}},
			Links: []graphstore.Link{{Source: "n1", Target: "n2", Label: "reported to"}},
		},
	}
	p, err := New(
		&stubModel{
			evalReply:  "NO\nThe snippets barely touch the question.",
			gradeReply: "YES\nThe merged context is on topic.",
			answer:     "BOI reports go to FinCEN [Source 1].",
		},
		vector,
		WithGraphRetriever(graph, &stubGate{enabled: map[int64]bool{7: true}}),
	)
	require.NoError(t, err)

	events, err := p.Run(context.Background(), &Request{
		Message: "Who receives BOI reports?",
		OrgIDs:  []int64{7},
	}, "msg-2")
	require.NoError(t, err)
	all := drain(t, events)

	require.Equal(t, 1, graph.calls)
	assert.Equal(t, []int64{7}, graph.orgIDs[0])

	var graphData *graphstore.Payload
	for _, evt := range all {
		if evt.Type == event.TypeGraphData {
			graphData = evt.Data.(*graphstore.Payload)
		}
	}
	require.NotNil(t, graphData)
	assert.NotEmpty(t, graphData.Nodes)

	// Graph facts outrank the weak vector hits.
	sources := sourcesEvent(t, all).Sources
	require.Len(t, sources, 4)
	assert.Equal(t, knowledge.OriginGraph, sources[0].Origin)
	assert.Equal(t, event.TypeFinish, typesOf(all)[len(all)-1])

	seq := nodeSequence(all)
	assert.Contains(t, seq, "node-start:retrieve_graph")
}

func TestPipelineOffTopicFallback(t *testing.T) {
	vector := &stubVector{candidates: []knowledge.Candidate{
		candidate("doc-1", knowledge.OriginVector, 0.35),
	}}
	p, err := New(
		&stubModel{
			evalReply:  "YES\nIt mentions the term.",
			gradeReply: "NO\nThe context is about something else.",
			answer:     "should never be used",
		},
		vector,
	)
	require.NoError(t, err)

	events, err := p.Run(context.Background(), &Request{
		Message: "How do I bake sourdough?",
	}, "msg-3")
	require.NoError(t, err)
	all := drain(t, events)

	types := typesOf(all)
	assert.NotContains(t, types, event.TypeTextDelta)
	assert.Empty(t, sourcesEvent(t, all).Sources)
	assert.Equal(t, fallbackAnswer, answerText(all))
	assert.Equal(t, event.TypeFinish, types[len(types)-1])

	seq := nodeSequence(all)
	assert.Contains(t, seq, "node-start:fallback")
	assert.NotContains(t, seq, "node-start:generate")
}

func TestPipelineBareURLSummary(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Doc</title><script>nope()</script></head>`+
			`<body><h1>Filing guide</h1><p>File early.</p></body></html>`)
	}))
	defer page.Close()

	vector := &stubVector{}
	p, err := New(
		&stubModel{
			intentReply: "DIRECT_SUMMARY",
			summary:     "The page is a filing guide recommending early filing.",
		},
		vector,
	)
	require.NoError(t, err)

	events, err := p.Run(context.Background(), &Request{
		Message: "Summarize " + page.URL + "/guide please",
	}, "msg-4")
	require.NoError(t, err)
	all := drain(t, events)

	assert.Equal(t, 0, vector.calls)
	seq := nodeSequence(all)
	assert.NotContains(t, seq, "node-start:retrieve")
	assert.NotContains(t, seq, "node-start:evaluate")
	assert.NotContains(t, seq, "node-start:grade")

	var contents []string
	for _, evt := range all {
		if evt.Type == event.TypeTextContent {
			contents = append(contents, evt.Content)
		}
	}
	require.Len(t, contents, 1)
	assert.Equal(t, "The page is a filing guide recommending early filing.", contents[0])
	assert.Equal(t, event.TypeFinish, typesOf(all)[len(all)-1])
}

func TestPipelineGraphGateInvariant(t *testing.T) {
	// Zero candidates force an insufficient verdict, yet the graph must
	// stay untouched for a gated organization.
	graph := &stubGraph{candidates: []knowledge.Candidate{
		candidate("fact-1", knowledge.OriginGraph, 0.80),
	}}
	p, err := New(
		&stubModel{
			evalReply:  "NO\nNothing retrieved.",
			gradeReply: "NO\nNothing to grade.",
		},
		&stubVector{},
		WithGraphRetriever(graph, &stubGate{enabled: map[int64]bool{}}),
	)
	require.NoError(t, err)

	st, err := p.Invoke(context.Background(), &Request{
		Message: "What is BOI?",
		OrgIDs:  []int64{3},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, graph.calls)
	assert.Equal(t, VerdictInsufficient, st.EvaluatorVerdict)
	assert.Equal(t, fallbackAnswer, st.Answer)
}

func TestPipelineCitationBounds(t *testing.T) {
	vector := &stubVector{candidates: []knowledge.Candidate{
		candidate("doc-1", knowledge.OriginVector, 0.9),
		candidate("doc-2", knowledge.OriginVector, 0.8),
	}}
	p, err := New(
		&stubModel{
			evalReply:  "YES\nEnough.",
			gradeReply: "YES\nRelevant.",
			answer:     "First point [Source 1], second point [Source 2].",
		},
		vector,
	)
	require.NoError(t, err)

	st, err := p.Invoke(context.Background(), &Request{Message: "What is BOI?"})
	require.NoError(t, err)
	require.NotEmpty(t, st.Ranked)

	markers := regexp.MustCompile(`\[Source (\d+)\]`).FindAllStringSubmatch(st.Answer, -1)
	require.NotEmpty(t, markers)
	for _, m := range markers {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, len(st.Ranked))
	}
}

func TestPipelineDeterministicEventSequence(t *testing.T) {
	newPipeline := func() *Pipeline {
		p, err := New(
			&stubModel{
				evalReply:  "YES\nCovered.",
				gradeReply: "YES\nOn topic.",
				answer:     "Answer [Source 1].",
			},
			&stubVector{candidates: []knowledge.Candidate{
				candidate("doc-1", knowledge.OriginVector, 0.9),
			}},
		)
		require.NoError(t, err)
		return p
	}
	req := &Request{Message: "What is BOI?"}

	var sequences [][]string
	for i := 0; i < 3; i++ {
		events, err := newPipeline().Run(context.Background(), req, "msg")
		require.NoError(t, err)
		sequences = append(sequences, nodeSequence(drain(t, events)))
	}
	assert.Equal(t, sequences[0], sequences[1])
	assert.Equal(t, sequences[1], sequences[2])
}

func TestPipelineAdapterFailureContinues(t *testing.T) {
	// A failing vector branch leaves zero candidates; the workflow still
	// completes through the fallback instead of erroring out.
	p, err := New(
		&stubModel{
			evalReply:  "NO\nNothing retrieved.",
			gradeReply: "NO\nNothing to grade.",
		},
		&stubVector{err: errors.New("index offline")},
	)
	require.NoError(t, err)

	st, err := p.Invoke(context.Background(), &Request{Message: "What is BOI?"})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, st.Answer)
	assert.Contains(t, strings.Join(st.Trace, " "), "Vector search failed")
}

func TestPipelineRequestValidation(t *testing.T) {
	p, err := New(&stubModel{answer: "x"}, &stubVector{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), &Request{}, "msg")
	require.Error(t, err)

	_, err = p.Run(context.Background(), &Request{
		Message:     "hi",
		TempFileIDs: []string{"f1"},
	}, "msg")
	require.Error(t, err)
}

func TestPipelineTempCandidatesMerged(t *testing.T) {
	temp := &stubTemp{candidates: []knowledge.Candidate{
		candidate("up-1", knowledge.OriginTemp, 0.95),
	}}
	p, err := New(
		&stubModel{
			evalReply:  "YES\nThe upload covers it.",
			gradeReply: "YES\nOn topic.",
			answer:     "From your file [Source 1].",
		},
		&stubVector{candidates: []knowledge.Candidate{
			candidate("doc-1", knowledge.OriginVector, 0.5),
		}},
		WithTempRetriever(temp),
	)
	require.NoError(t, err)

	st, err := p.Invoke(context.Background(), &Request{
		Message:     "What does my file say?",
		SessionID:   "sess-a",
		TempFileIDs: []string{"up-1"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"sess-a"}, temp.sessionIDs)
	require.NotEmpty(t, st.Ranked)
	assert.Equal(t, "up-1", st.Ranked[0].SourceID)
	assert.Equal(t, knowledge.OriginTemp, st.Ranked[0].Origin)
}
