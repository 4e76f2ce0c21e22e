//
// Tencent is pleased to support the open source community by making trpc-graphrag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graphrag-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

// judgmentTemperature keeps classification calls near-deterministic.
var judgmentTemperature = 0.0

// complete runs a non-streaming completion and returns the full text.
func complete(ctx context.Context, m model.Model, messages []model.Message, temperature *float64) (string, error) {
	responseChan, err := m.GenerateContent(ctx, &model.Request{
		Messages: messages,
		GenerationConfig: model.GenerationConfig{
			Stream:      false,
			Temperature: temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var content string
	for rsp := range responseChan {
		if rsp.Error != nil {
			return "", fmt.Errorf("model error: %s", rsp.Error.Message)
		}
		if text := rsp.Content(); text != "" {
			content = text
		}
	}
	if content == "" {
		return "", fmt.Errorf("model returned empty response")
	}
	return content, nil
}

// stream runs a streaming completion, invoking onToken for every delta, and
// returns the accumulated text. onToken returning an error aborts the stream.
func stream(
	ctx context.Context,
	m model.Model,
	messages []model.Message,
	temperature *float64,
	onToken func(token string) error,
) (string, error) {
	responseChan, err := m.GenerateContent(ctx, &model.Request{
		Messages: messages,
		GenerationConfig: model.GenerationConfig{
			Stream:      true,
			Temperature: temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for rsp := range responseChan {
		if rsp.Error != nil {
			return "", fmt.Errorf("model error: %s", rsp.Error.Message)
		}
		if rsp.Done {
			// The final response repeats the accumulated text.
			continue
		}
		token := rsp.Content()
		if token == "" {
			continue
		}
		b.WriteString(token)
		if onToken != nil {
			if err := onToken(token); err != nil {
				return "", err
			}
		}
	}
	return b.String(), nil
}

// parseYesNo extracts a YES/NO verdict from the first line of a judgment
// reply. The second return value is false when no verdict is recognizable.
func parseYesNo(reply string) (yes, ok bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	words := strings.FieldsFunc(strings.ToUpper(line), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return false, false
	}
	switch words[0] {
	case "YES":
		return true, true
	case "NO":
		return false, true
	}
	return false, false
}

// rationale returns the judgment reply with its verdict line stripped.
func rationale(reply string) string {
	_, rest, found := strings.Cut(strings.TrimSpace(reply), "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}
