//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the chat-completion provider interface consumed by
// the workflow nodes. Implementations live in subpackages (e.g. model/openai);
// tests substitute deterministic stubs.
package model

import "context"

// Role represents the role of a message author.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	// Role is the author of the message.
	Role Role `json:"role"`
	// Content is the text content of the message.
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// GenerationConfig controls how content is generated.
type GenerationConfig struct {
	// Stream indicates whether the response should be streamed token by token.
	Stream bool `json:"stream"`
	// Temperature controls output randomness. Nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens caps the completion length. Nil uses the provider default.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// Request is a chat-completion request.
type Request struct {
	// Messages is the conversation so far, system prompt included.
	Messages []Message `json:"messages"`

	GenerationConfig `json:",inline"`
}

// Info describes a model implementation.
type Info struct {
	// Name is the model name (e.g. "gpt-4o-mini").
	Name string `json:"name"`
}

// Model is the interface every chat-completion provider implements.
//
// GenerateContent returns a channel of responses. For streaming requests the
// channel carries one partial response per token delta followed by a final
// response with Done set; for non-streaming requests it carries exactly one
// final response. The channel is closed when generation completes, fails, or
// the context is canceled.
type Model interface {
	// GenerateContent generates content for the given request.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}
