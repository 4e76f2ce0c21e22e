//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package pgvector provides a PostgreSQL vector store implementation using
// the pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/document"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
)

// Verify that VectorStore implements the vectorstore.VectorStore interface.
var _ vectorstore.VectorStore = (*VectorStore)(nil)

const (
	defaultTable = "knowledge_vectors"
	defaultLimit = 10
)

// VectorStore is a vector index on PostgreSQL with the pgvector extension.
type VectorStore struct {
	pool  *pgxpool.Pool
	table string
}

// Option configures a VectorStore.
type Option func(*VectorStore)

// WithTable sets the table name. Defaults to "knowledge_vectors".
func WithTable(table string) Option {
	return func(vs *VectorStore) {
		vs.table = table
	}
}

// New creates a vector store on the given connection pool. The table and the
// vector extension must already exist; schema migration is an ingestion-side
// concern.
func New(pool *pgxpool.Pool, opts ...Option) *VectorStore {
	vs := &VectorStore{pool: pool, table: defaultTable}
	for _, opt := range opts {
		opt(vs)
	}
	return vs
}

// Connect opens a pgx pool for the given DSN and wraps it in a VectorStore.
func Connect(ctx context.Context, dsn string, opts ...Option) (*VectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool, opts...), nil
}

// Add implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Add(ctx context.Context, doc *document.Document, embedding []float64) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document must have an ID")
	}
	if len(embedding) == 0 {
		return errors.New("embedding cannot be empty")
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, content, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, vs.table)
	_, err = vs.pool.Exec(ctx, query,
		doc.ID, doc.Name, doc.Content, metadata, toVector(embedding), createdAt)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

// Search implements the vectorstore.VectorStore interface. Cosine distance is
// mapped to a similarity score in [0,1].
func (vs *VectorStore) Search(ctx context.Context, query *vectorstore.Query) ([]*vectorstore.Result, error) {
	if query == nil || len(query.Vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	args := []any{toVector(query.Vector)}
	var conds []string
	for _, key := range sortedKeys(query.Filter) {
		value := query.Filter[key]
		if values := stringSlice(value); values != nil {
			args = append(args, values)
			conds = append(conds, fmt.Sprintf("metadata->>%s = ANY($%d)", quoteLiteral(key), len(args)))
			continue
		}
		args = append(args, fmt.Sprint(value))
		conds = append(conds, fmt.Sprintf("metadata->>%s = $%d", quoteLiteral(key), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT id, name, content, metadata, created_at,
		       1 - (embedding <=> $1) AS score
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d`, vs.table, where, len(args))

	rows, err := vs.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	defer rows.Close()

	var results []*vectorstore.Result
	for rows.Next() {
		var (
			doc      document.Document
			metadata []byte
			score    float64
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Content, &metadata,
			&doc.CreatedAt, &score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		if score < query.MinScore {
			continue
		}
		results = append(results, &vectorstore.Result{Document: &doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return results, nil
}

// Delete implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", vs.table)
	if _, err := vs.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Close implements the vectorstore.VectorStore interface.
func (vs *VectorStore) Close() error {
	vs.pool.Close()
	return nil
}

// sortedKeys keeps filter SQL deterministic.
func sortedKeys(filter map[string]any) []string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringSlice converts a slice filter value to its string elements, or nil
// when the value is not a slice.
func stringSlice(value any) []string {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return out
}

// quoteLiteral quotes a metadata key for inline use. Keys come from our own
// adapters, never from user input.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func toVector(embedding []float64) pgv.Vector {
	v := make([]float32, len(embedding))
	for i, f := range embedding {
		v[i] = float32(f)
	}
	return pgv.NewVector(v)
}
