//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package document defines the document unit shared by retrieval components.
package document

import "time"

// Document represents one indexed chunk of knowledge.
type Document struct {
	// ID is the unique identifier of the chunk.
	ID string `json:"id"`
	// Name is the human-readable name of the originating file or record.
	Name string `json:"name,omitempty"`
	// Content is the chunk text.
	Content string `json:"content"`
	// Metadata carries arbitrary key-value pairs attached at ingestion time
	// (org_id, file_id, page numbers, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the chunk was indexed.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Metadata != nil {
		clone.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
