//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package neo4j provides a Neo4j knowledge-graph store implementation.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge/graphstore"
)

// Verify that GraphStore implements the graphstore.GraphStore interface.
var _ graphstore.GraphStore = (*GraphStore)(nil)

const (
	defaultDatabase  = "neo4j"
	defaultMaxFacts  = 20
	defaultIndexName = "entity_names"
)

// retrieveCypher seeds on entities matched by the full-text index and expands
// one hop to their neighbors. Facts are rendered from the traversed
// relationships; org scoping filters on the org_id property when orgIDs is
// non-empty.
const retrieveCypher = `
CALL db.index.fulltext.queryNodes($index, $query) YIELD node AS seed, score
WHERE size($orgIDs) = 0 OR seed.org_id IN $orgIDs
WITH seed, score ORDER BY score DESC LIMIT 5
MATCH (seed)-[rel]-(neighbor)
WHERE size($orgIDs) = 0 OR neighbor.org_id IN $orgIDs
RETURN
  elementId(seed) AS seedId, seed.name AS seedName, labels(seed) AS seedLabels,
  type(rel) AS relType,
  elementId(neighbor) AS neighborId, neighbor.name AS neighborName,
  labels(neighbor) AS neighborLabels,
  coalesce(rel.source_id, elementId(rel)) AS sourceId
LIMIT $maxFacts`

// GraphStore queries a Neo4j knowledge graph.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	index    string
	maxFacts int
}

// Option configures a GraphStore.
type Option func(*GraphStore)

// WithDatabase sets the Neo4j database name. Defaults to "neo4j".
func WithDatabase(database string) Option {
	return func(gs *GraphStore) {
		gs.database = database
	}
}

// WithFulltextIndex sets the full-text index used for entity seeding.
func WithFulltextIndex(index string) Option {
	return func(gs *GraphStore) {
		gs.index = index
	}
}

// WithMaxFacts caps the number of facts per traversal.
func WithMaxFacts(n int) Option {
	return func(gs *GraphStore) {
		if n > 0 {
			gs.maxFacts = n
		}
	}
}

// New connects to a Neo4j instance.
func New(ctx context.Context, uri, username, password string, opts ...Option) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	gs := &GraphStore{
		driver:   driver,
		database: defaultDatabase,
		index:    defaultIndexName,
		maxFacts: defaultMaxFacts,
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs, nil
}

// Retrieve implements the graphstore.GraphStore interface.
func (gs *GraphStore) Retrieve(ctx context.Context, query string, orgIDs []string) (*graphstore.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query cannot be empty")
	}
	if orgIDs == nil {
		orgIDs = []string{}
	}

	records, err := neo4j.ExecuteQuery(ctx, gs.driver, retrieveCypher,
		map[string]any{
			"index":    gs.index,
			"query":    query,
			"orgIDs":   orgIDs,
			"maxFacts": gs.maxFacts,
		},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(gs.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("graph traversal: %w", err)
	}

	result := &graphstore.Result{Payload: &graphstore.Payload{}}
	seenNodes := make(map[string]bool)
	seenLinks := make(map[string]bool)

	for _, record := range records.Records {
		row, err := parseRecord(record)
		if err != nil {
			return nil, err
		}

		result.Facts = append(result.Facts, graphstore.Fact{
			Text:     fmt.Sprintf("%s %s %s", row.seedName, humanizeRelType(row.relType), row.neighborName),
			SourceID: row.sourceID,
			Entities: []string{row.seedName, row.neighborName},
		})
		addNode(result.Payload, seenNodes, row.seedID, row.seedName, row.seedLabels)
		addNode(result.Payload, seenNodes, row.neighborID, row.neighborName, row.neighborLabels)
		linkKey := row.seedID + "|" + row.relType + "|" + row.neighborID
		if !seenLinks[linkKey] {
			seenLinks[linkKey] = true
			result.Payload.Links = append(result.Payload.Links, graphstore.Link{
				Source: row.seedID,
				Target: row.neighborID,
				Label:  humanizeRelType(row.relType),
			})
		}
	}
	return result, nil
}

// Close implements the graphstore.GraphStore interface.
func (gs *GraphStore) Close(ctx context.Context) error {
	return gs.driver.Close(ctx)
}

type recordRow struct {
	seedID, seedName, relType, neighborID, neighborName, sourceID string
	seedLabels, neighborLabels                                    []string
}

func parseRecord(record *neo4j.Record) (*recordRow, error) {
	row := &recordRow{}
	fields := []struct {
		key  string
		dest *string
	}{
		{"seedId", &row.seedID},
		{"seedName", &row.seedName},
		{"relType", &row.relType},
		{"neighborId", &row.neighborID},
		{"neighborName", &row.neighborName},
		{"sourceId", &row.sourceID},
	}
	for _, f := range fields {
		v, ok := record.Get(f.key)
		if !ok {
			return nil, fmt.Errorf("record missing field %s", f.key)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("record field %s is not a string", f.key)
		}
		*f.dest = s
	}
	row.seedLabels = stringList(record, "seedLabels")
	row.neighborLabels = stringList(record, "neighborLabels")
	return row, nil
}

func stringList(record *neo4j.Record, key string) []string {
	v, ok := record.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func addNode(payload *graphstore.Payload, seen map[string]bool, id, name string, labels []string) {
	if seen[id] {
		return
	}
	seen[id] = true
	nodeType := ""
	if len(labels) > 0 {
		nodeType = strings.ToLower(labels[0])
	}
	payload.Nodes = append(payload.Nodes, graphstore.Node{
		ID:    id,
		Label: name,
		Type:  nodeType,
	})
}

// humanizeRelType turns RELATES_TO into "relates to".
func humanizeRelType(relType string) string {
	return strings.ToLower(strings.ReplaceAll(relType, "_", " "))
}
