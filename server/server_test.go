//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graphrag-go/agent"
	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/model"
	"trpc.group/trpc-go/trpc-graphrag-go/organization"
	"trpc.group/trpc-go/trpc-graphrag-go/session"
)

// silentModel fails on any call; the test paths never reach the model.
type silentModel struct{}

func (silentModel) GenerateContent(context.Context, *model.Request) (<-chan *model.Response, error) {
	return nil, errors.New("unexpected model call")
}

func (silentModel) Info() model.Info { return model.Info{Name: "silent"} }

// emptyVector returns no candidates, which drives the fallback path.
type emptyVector struct{}

func (emptyVector) Retrieve(context.Context, string, []int64, []int64) ([]knowledge.Candidate, error) {
	return nil, nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	pipeline, err := agent.New(silentModel{}, emptyVector{})
	require.NoError(t, err)
	orgs := organization.NewStaticProvider([]organization.Config{
		{ID: 1, Name: "alpha", GraphEnabled: false},
	})
	return New(pipeline, orgs, opts...)
}

func postChat(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatValidation(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{
			name:    "empty message",
			body:    agent.Request{},
			wantMsg: "message is required",
		},
		{
			name:    "temp files without session",
			body:    agent.Request{Message: "hi", TempFileIDs: []string{"f1"}},
			wantMsg: "temp_file_ids require a session_id",
		},
		{
			name:    "unknown organization",
			body:    agent.Request{Message: "hi", OrgIDs: []int64{99}},
			wantMsg: "unknown organization",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantMsg, payload["error"])
		})
	}
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// decodeFrames parses `data: <json>` SSE frames into events.
func decodeFrames(t *testing.T, body string) []*event.Event {
	t.Helper()
	var events []*event.Event
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var evt event.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &evt))
		events = append(events, &evt)
	}
	return events
}

func TestChatStreamsEvents(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := postChat(t, h, agent.Request{Message: "what is the filing deadline", OrgIDs: []int64{1}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := decodeFrames(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, event.TypeStart, events[0].Type)
	assert.NotEmpty(t, events[0].MessageID)
	assert.Equal(t, event.TypeFinish, events[len(events)-1].Type)

	// No retrievable context means the deterministic fallback answer.
	var sawAnswer bool
	for _, evt := range events {
		if evt.Type == event.TypeTextContent {
			sawAnswer = true
			assert.NotEmpty(t, evt.Content)
		}
		assert.NotEqual(t, event.TypeError, evt.Type)
	}
	assert.True(t, sawAnswer)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type constEmbedder struct{}

func (constEmbedder) GetEmbedding(context.Context, string) ([]float64, error) {
	return []float64{1, 0, 0, 0}, nil
}

func (constEmbedder) GetDimensions() int { return 4 }

func multipartBody(t *testing.T, sessionID, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if sessionID != "" {
		require.NoError(t, w.WriteField("session_id", sessionID))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadFlow(t *testing.T) {
	sessions, err := session.NewService(constEmbedder{}, 1, session.WithTTL(0))
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	h := newTestServer(t, WithSessionService(sessions)).Handler()

	body, contentType := multipartBody(t, "sess-1", "notes.txt", []byte("quarterly filing notes"))
	req := httptest.NewRequest(http.MethodPost, "/api/temp/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var up session.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	require.NotEmpty(t, up.ID)

	// Poll the status endpoint until processing settles.
	deadline := time.Now().Add(5 * time.Second)
	for {
		req = httptest.NewRequest(http.MethodGet, "/api/temp/status/"+up.ID, nil)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
		if up.Status != session.StatusUploading {
			break
		}
		require.True(t, time.Now().Before(deadline), "upload never finished")
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, session.StatusReady, up.Status)
}

func TestUploadValidation(t *testing.T) {
	sessions, err := session.NewService(constEmbedder{}, 1, session.WithTTL(0))
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	h := newTestServer(t, WithSessionService(sessions)).Handler()

	// Missing session_id.
	body, contentType := multipartBody(t, "", "notes.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/temp/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing file part.
	body, contentType = multipartBody(t, "sess-1", "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/temp/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown upload ID.
	req = httptest.NewRequest(http.MethodGet, "/api/temp/status/missing", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadDisabled(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/temp/upload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
