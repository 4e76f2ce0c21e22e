//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package openai

// options contains configuration options for creating a Model.
type options struct {
	// APIKey is the API key. Falls back to OPENAI_API_KEY when empty.
	APIKey string
	// BaseURL is the base URL for OpenAI-compatible APIs.
	BaseURL string
	// ChannelBufferSize is the buffer size for response channels.
	ChannelBufferSize int
}

var defaultOptions = options{
	ChannelBufferSize: 256,
}

// Option configures a Model.
type Option func(*options)

// WithAPIKey sets the API key.
// If not provided, the OPENAI_API_KEY environment variable is used.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.APIKey = apiKey
	}
}

// WithBaseURL sets the base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.BaseURL = baseURL
	}
}

// WithChannelBufferSize sets the buffer size for response channels.
func WithChannelBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.ChannelBufferSize = size
		}
	}
}
