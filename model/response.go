//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package model

import "time"

// Error type constants for ResponseError.Type field.
const (
	ErrorTypeStreamError = "stream_error"
	ErrorTypeAPIError    = "api_error"
)

// Object type constants for Response.Object field.
const (
	// ObjectTypeChatCompletionChunk is the object type for streamed chunks.
	ObjectTypeChatCompletionChunk = "chat.completion.chunk"
	// ObjectTypeChatCompletion is the object type for complete responses.
	ObjectTypeChatCompletion = "chat.completion"
)

// Choice represents a single completion choice.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`
	// Message is the complete message content.
	Message Message `json:"message,omitempty"`
	// Delta is the incremental message content for streamed chunks.
	Delta Message `json:"delta,omitempty"`
	// FinishReason is the reason the choice finished ("stop", "length", ...).
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Response is the response from the model.
//
// The Error field represents API-level errors that occur after successful
// communication with the model service; function-level errors returned by
// GenerateContent indicate failures that prevent communication entirely.
type Response struct {
	// ID is the unique identifier for this response.
	ID string `json:"id"`
	// Object describes the type of object returned.
	Object string `json:"object"`
	// Created is the Unix timestamp when the response was created.
	Created int64 `json:"created"`
	// Model is the model used to generate the response.
	Model string `json:"model"`
	// Choices contains the completion choices.
	Choices []Choice `json:"choices"`
	// Error contains API-level error information if the request failed.
	Error *ResponseError `json:"error,omitempty"`
	// Timestamp is when this response chunk was received.
	Timestamp time.Time `json:"timestamp"`
	// Done indicates the stream is complete.
	Done bool `json:"done"`
	// IsPartial indicates this is a partial (streamed) response.
	IsPartial bool `json:"is_partial"`
}

// Content returns the text of the first choice, preferring the complete
// message over the delta.
func (rsp *Response) Content() string {
	if rsp == nil || len(rsp.Choices) == 0 {
		return ""
	}
	if rsp.Choices[0].Message.Content != "" {
		return rsp.Choices[0].Message.Content
	}
	return rsp.Choices[0].Delta.Content
}

// ResponseError represents an error response from the API.
type ResponseError struct {
	// Message is the error message.
	Message string `json:"message"`
	// Type is the type of error.
	Type string `json:"type"`
}
