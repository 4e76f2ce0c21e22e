//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package session manages session-scoped temporary knowledge: quick-uploaded
// files are extracted, chunked and embedded into a per-session in-memory
// collection that only requests carrying the same session ID can query.
// Collections expire after a TTL of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/document"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/embedder"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore/inmemory"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
)

// Status is the lifecycle state of a quick upload.
type Status string

// Upload statuses. Only ready files are searchable.
const (
	StatusUploading Status = "uploading"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// ErrUploadNotFound indicates an unknown upload ID.
var ErrUploadNotFound = errors.New("upload not found")

// Upload is the externally visible record of one quick upload.
type Upload struct {
	// ID is the upload identifier returned to the client.
	ID string `json:"file_id"`
	// SessionID is the owning session.
	SessionID string `json:"session_id"`
	// Name is the original file name.
	Name string `json:"name"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Error holds the failure reason when Status is error.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the upload was accepted.
	CreatedAt time.Time `json:"created_at"`
}

type sessionData struct {
	store      *inmemory.VectorStore
	lastAccess time.Time
	uploadIDs  []string
}

const (
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 150
	defaultWorkers        = 4
	defaultTTL            = time.Hour
	defaultProcessTimeout = 2 * time.Minute
	defaultSearchLimit    = 5
	defaultSearchMinScore = 0.2
)

// Service owns all session collections and the ingestion worker pool.
type Service struct {
	embedder       embedder.Embedder
	pool           *ants.Pool
	ttl            time.Duration
	chunkSize      int
	chunkOverlap   int
	processTimeout time.Duration
	searchLimit    int

	mu       sync.RWMutex
	sessions map[string]*sessionData
	uploads  map[string]*Upload

	done      chan struct{}
	closeOnce sync.Once
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTTL sets the idle lifetime of a session collection. Zero disables
// eviction.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithChunking sets chunk size and overlap in runes.
func WithChunking(size, overlap int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.chunkSize = size
		}
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

// WithSearchLimit caps the candidates returned per query.
func WithSearchLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

// NewService creates the session knowledge service with the given embedder
// and a pool of workers ingesting uploads in the background.
func NewService(emb embedder.Embedder, workers int, opts ...ServiceOption) (*Service, error) {
	if emb == nil {
		return nil, errors.New("embedder is required")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	s := &Service{
		embedder:       emb,
		pool:           pool,
		ttl:            defaultTTL,
		chunkSize:      defaultChunkSize,
		chunkOverlap:   defaultChunkOverlap,
		processTimeout: defaultProcessTimeout,
		searchLimit:    defaultSearchLimit,
		sessions:       make(map[string]*sessionData),
		uploads:        make(map[string]*Upload),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		go s.janitor()
	}
	return s, nil
}

// Upload accepts a file for the given session and returns immediately with
// an uploading record; extraction, chunking and embedding run on the worker
// pool. Poll Status until the record turns ready or error.
func (s *Service) Upload(_ context.Context, sessionID, filename string, data []byte) (*Upload, error) {
	if sessionID == "" {
		return nil, errors.New("session_id is required")
	}
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}

	up := &Upload{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      filename,
		Status:    StatusUploading,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &sessionData{store: inmemory.New()}
		s.sessions[sessionID] = sess
	}
	sess.lastAccess = time.Now()
	sess.uploadIDs = append(sess.uploadIDs, up.ID)
	s.uploads[up.ID] = up
	s.mu.Unlock()

	if err := s.pool.Submit(func() {
		s.process(up.ID, sessionID, filename, data)
	}); err != nil {
		s.setStatus(up.ID, StatusError, "ingestion queue unavailable")
		return nil, fmt.Errorf("submit ingestion job: %w", err)
	}
	return s.snapshot(up.ID)
}

// Status returns the current state of an upload.
func (s *Service) Status(fileID string) (*Upload, error) {
	return s.snapshot(fileID)
}

// Retrieve searches the session's ready uploads among fileIDs. It satisfies
// the workflow's temp retriever seam. Unknown, non-ready or foreign-session
// file IDs contribute nothing.
func (s *Service) Retrieve(ctx context.Context, sessionID, query string, fileIDs []string) ([]knowledge.Candidate, error) {
	s.mu.Lock()
	sess := s.sessions[sessionID]
	var readyIDs []string
	if sess != nil {
		sess.lastAccess = time.Now()
		for _, id := range fileIDs {
			up := s.uploads[id]
			if up != nil && up.SessionID == sessionID && up.Status == StatusReady {
				readyIDs = append(readyIDs, id)
			}
		}
	}
	s.mu.Unlock()

	if sess == nil || len(readyIDs) == 0 {
		return nil, nil
	}

	vector, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := sess.store.Search(ctx, &vectorstore.Query{
		Vector:   vector,
		Limit:    s.searchLimit,
		MinScore: defaultSearchMinScore,
		Filter:   map[string]any{"temp_file_id": readyIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("search session collection: %w", err)
	}

	candidates := make([]knowledge.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, knowledge.Candidate{
			Content:  r.Document.Content,
			SourceID: r.Document.ID,
			Origin:   knowledge.OriginTemp,
			Score:    r.Score,
			Metadata: r.Document.Metadata,
		})
	}
	return candidates, nil
}

// Close stops the janitor and releases the worker pool.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.pool.Release()
	})
}

// process runs on the worker pool: extract, chunk, embed, index.
func (s *Service) process(uploadID, sessionID, filename string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
	defer cancel()

	text, err := extractText(filename, data)
	if err != nil {
		s.fail(uploadID, err)
		return
	}
	chunks := chunkText(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		s.fail(uploadID, errors.New("no text extracted"))
		return
	}

	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		// Session evicted while the upload was queued.
		s.setStatus(uploadID, StatusError, "session expired")
		return
	}

	for i, chunk := range chunks {
		vector, err := s.embedder.GetEmbedding(ctx, chunk)
		if err != nil {
			s.fail(uploadID, fmt.Errorf("embed chunk %d: %w", i, err))
			return
		}
		doc := &document.Document{
			ID:      fmt.Sprintf("%s-%d", uploadID, i),
			Name:    filename,
			Content: chunk,
			Metadata: map[string]any{
				"temp_file_id": uploadID,
				"file_name":    filename,
			},
			CreatedAt: time.Now(),
		}
		if err := sess.store.Add(ctx, doc, vector); err != nil {
			s.fail(uploadID, fmt.Errorf("index chunk %d: %w", i, err))
			return
		}
	}

	s.setStatus(uploadID, StatusReady, "")
	log.Infof("upload %s ready: %d chunks from %s", uploadID, len(chunks), filename)
}

func (s *Service) fail(uploadID string, err error) {
	log.Errorf("upload %s failed: %v", uploadID, err)
	s.setStatus(uploadID, StatusError, err.Error())
}

func (s *Service) setStatus(uploadID string, status Status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if up := s.uploads[uploadID]; up != nil {
		up.Status = status
		up.Error = message
	}
}

func (s *Service) snapshot(uploadID string) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	up, ok := s.uploads[uploadID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	clone := *up
	return &clone, nil
}

// janitor evicts sessions idle for longer than the TTL, together with their
// upload records.
func (s *Service) janitor() {
	interval := s.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.evictBefore(now.Add(-s.ttl))
		}
	}
}

func (s *Service) evictBefore(deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, sess := range s.sessions {
		if sess.lastAccess.After(deadline) {
			continue
		}
		for _, uploadID := range sess.uploadIDs {
			delete(s.uploads, uploadID)
		}
		delete(s.sessions, sessionID)
		log.Infof("evicted idle session %s", sessionID)
	}
}
