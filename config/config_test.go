//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, "knowledge_vectors", cfg.Postgres.Table)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, time.Hour, cfg.Session.TTL.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  allowed_origins:
    - https://app.example.com
model:
  name: gpt-4o
retrieval:
  top_k: 3
  min_score: 0.4
session:
  ttl: 30m
  chunk_size: 500
organizations:
  - id: 1
    name: alpha
    graph_enabled: true
  - id: 2
    name: beta
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.4, cfg.Retrieval.MinScore)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 500, cfg.Session.ChunkSize)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Absent fields keep their defaults.
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 150, cfg.Session.ChunkOverlap)

	require.Len(t, cfg.Organizations, 2)
	assert.True(t, cfg.Organizations[0].GraphEnabled)
	assert.False(t, cfg.Organizations[1].GraphEnabled)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: soon\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GRAPHRAG_ADDR", ":7000")
	t.Setenv("NEO4J_URI", "bolt://db:7687")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)
}
