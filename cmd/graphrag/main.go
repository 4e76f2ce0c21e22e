//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Command graphrag runs the GraphRAG question-answering server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"trpc.group/trpc-go/trpc-graphrag-go/agent"
	"trpc.group/trpc-go/trpc-graphrag-go/config"
	embopenai "trpc.group/trpc-go/trpc-graphrag-go/knowledge/embedder/openai"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore/neo4j"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore/inmemory"
	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/vectorstore/pgvector"
	"trpc.group/trpc-go/trpc-graphrag-go/log"
	"trpc.group/trpc-go/trpc-graphrag-go/model/openai"
	"trpc.group/trpc-go/trpc-graphrag-go/organization"
	"trpc.group/trpc-go/trpc-graphrag-go/server"
	"trpc.group/trpc-go/trpc-graphrag-go/session"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	chatModel := openai.New(cfg.Model.Name,
		openai.WithAPIKey(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
	)
	emb := embopenai.New(
		embopenai.WithModel(cfg.Embedding.Model),
		embopenai.WithDimensions(cfg.Embedding.Dimensions),
		embopenai.WithAPIKey(cfg.Model.APIKey),
		embopenai.WithBaseURL(cfg.Model.BaseURL),
	)

	var store vectorstore.VectorStore
	if cfg.Postgres.DSN != "" {
		pg, err := pgvector.Connect(ctx, cfg.Postgres.DSN,
			pgvector.WithTable(cfg.Postgres.Table))
		if err != nil {
			return err
		}
		store = pg
	} else {
		log.Warnf("no postgres DSN configured, using the in-memory vector store")
		store = inmemory.New()
	}
	defer store.Close()

	sessions, err := session.NewService(emb, cfg.Session.Workers,
		session.WithTTL(cfg.Session.TTL.Std()),
		session.WithChunking(cfg.Session.ChunkSize, cfg.Session.ChunkOverlap),
	)
	if err != nil {
		return err
	}
	defer sessions.Close()

	orgs := organization.NewStaticProvider(cfg.Organizations)

	pipelineOpts := []agent.Option{
		agent.WithTempRetriever(sessions),
		agent.WithTopK(cfg.Retrieval.TopK),
	}
	if cfg.Neo4j.URI != "" {
		graphStore, err := neo4j.New(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password,
			neo4j.WithDatabase(cfg.Neo4j.Database))
		if err != nil {
			return err
		}
		defer graphStore.Close(context.Background())
		pipelineOpts = append(pipelineOpts, agent.WithGraphRetriever(
			agent.NewGraphAdapter(graphStore),
			organization.NewGate(orgs),
		))
	} else {
		log.Warnf("no neo4j URI configured, graph retrieval disabled")
	}

	vector := agent.NewVectorAdapter(emb, store,
		agent.WithVectorLimit(cfg.Retrieval.VectorLimit),
		agent.WithVectorMinScore(cfg.Retrieval.MinScore),
	)
	pipeline, err := agent.New(chatModel, vector, pipelineOpts...)
	if err != nil {
		return err
	}

	srv := server.New(pipeline, orgs,
		server.WithSessionService(sessions),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)
	return srv.Start(ctx, cfg.Server.Addr)
}
