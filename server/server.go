//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the workflow over HTTP: a streaming chat endpoint
// and the session quick-upload surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-graphrag-go/agent"
	"trpc.group/trpc-go/trpc-graphrag-go/internal/httpsse"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
	"trpc.group/trpc-go/trpc-graphrag-go/organization"
	"trpc.group/trpc-go/trpc-graphrag-go/session"
)

const (
	// maxUploadBytes caps quick uploads.
	maxUploadBytes = 20 << 20

	shutdownTimeout = 10 * time.Second
)

// Server wires the pipeline and session service into an HTTP surface.
type Server struct {
	pipeline *agent.Pipeline
	sessions *session.Service
	orgs     organization.Provider
	origins  []string
	tracer   trace.Tracer
	httpSrv  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow-list. Empty allows all origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithSessionService enables the quick-upload endpoints.
func WithSessionService(sessions *session.Service) Option {
	return func(s *Server) {
		s.sessions = sessions
	}
}

// New creates a Server for the given pipeline. The organization provider
// validates request scoping before any workflow starts.
func New(pipeline *agent.Pipeline, orgs organization.Provider, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		orgs:     orgs,
		tracer:   otel.Tracer("trpc.group/trpc-go/trpc-graphrag-go/server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/api/temp/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/temp/status/{id}", s.handleUploadStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(r)
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		errChan <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// handleChat validates the request, runs the workflow and streams its events
// as SSE frames. Malformed requests are rejected before the workflow starts;
// no partial stream is written for them.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "server.chat")
	defer span.End()

	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if status, msg := s.validateChat(ctx, &req); status != 0 {
		writeError(w, status, msg)
		return
	}

	messageID := uuid.NewString()
	events, err := s.pipeline.Run(ctx, &req, messageID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := httpsse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for evt := range events {
		if err := sse.Send(evt); err != nil {
			// Client went away; canceling the request context stops the
			// workflow and closes the channel.
			log.Debugf("chat %s stream closed: %v", messageID, err)
			return
		}
	}
}

// validateChat rejects malformed or out-of-scope requests with a status and
// message; a zero status means the request is acceptable.
func (s *Server) validateChat(ctx context.Context, req *agent.Request) (int, string) {
	if req.Message == "" {
		return http.StatusBadRequest, "message is required"
	}
	if len(req.TempFileIDs) > 0 && req.SessionID == "" {
		return http.StatusBadRequest, "temp_file_ids require a session_id"
	}
	if s.orgs != nil {
		for _, id := range req.OrgIDs {
			if _, err := s.orgs.Get(ctx, id); err != nil {
				if errors.Is(err, organization.ErrNotFound) {
					return http.StatusBadRequest, "unknown organization"
				}
				return http.StatusInternalServerError, "organization lookup failed"
			}
		}
	}
	return 0, ""
}

// handleUpload accepts a multipart file plus session_id and returns the
// upload record; processing continues in the background.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "quick upload is not enabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	up, err := s.sessions.Upload(r.Context(), sessionID, header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, up)
}

// handleUploadStatus reports the lifecycle state of one upload.
func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "quick upload is not enabled")
		return
	}

	up, err := s.sessions.Status(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, session.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
