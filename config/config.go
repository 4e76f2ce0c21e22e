//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the server configuration from YAML with environment
// overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-graphrag-go/organization"
)

// Duration wraps time.Duration for YAML values like "30m" or "2h".
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server configuration.
type Config struct {
	Server struct {
		// Addr is the listen address, e.g. ":8080".
		Addr string `yaml:"addr"`
		// AllowedOrigins configures CORS. Empty allows all origins.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Model struct {
		// Name is the chat model, e.g. "gpt-4o-mini".
		Name    string `yaml:"name"`
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"model"`

	Embedding struct {
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embedding"`

	Postgres struct {
		// DSN is the pgx connection string. Empty falls back to the
		// in-memory vector store, for development.
		DSN   string `yaml:"dsn"`
		Table string `yaml:"table"`
	} `yaml:"postgres"`

	Neo4j struct {
		// URI is the bolt endpoint. Empty disables graph retrieval.
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`

	Retrieval struct {
		// TopK is the citation list size.
		TopK int `yaml:"top_k"`
		// VectorLimit caps raw vector hits before reranking.
		VectorLimit int `yaml:"vector_limit"`
		// MinScore is the similarity floor for vector hits.
		MinScore float64 `yaml:"min_score"`
	} `yaml:"retrieval"`

	Session struct {
		// Workers sizes the ingestion pool.
		Workers int `yaml:"workers"`
		// TTL is the idle lifetime of a session collection.
		TTL Duration `yaml:"ttl"`
		// ChunkSize and ChunkOverlap are in runes.
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"session"`

	// Organizations is the static organization registry.
	Organizations []organization.Config `yaml:"organizations"`

	Log struct {
		// Level is one of debug, info, warn, error, fatal.
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when fields are absent.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Model.Name = "gpt-4o-mini"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.Dimensions = 1536
	cfg.Postgres.Table = "knowledge_vectors"
	cfg.Neo4j.Database = "neo4j"
	cfg.Retrieval.TopK = 5
	cfg.Retrieval.VectorLimit = 10
	cfg.Retrieval.MinScore = 0.2
	cfg.Session.Workers = 4
	cfg.Session.TTL = Duration(time.Hour)
	cfg.Session.ChunkSize = 1000
	cfg.Session.ChunkOverlap = 150
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets credentials come from the environment instead of the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Neo4j.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("GRAPHRAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
