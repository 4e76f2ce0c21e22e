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
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"trpc.group/trpc-go/trpc-graphrag-go/event"
	"trpc.group/trpc-go/trpc-graphrag-go/model"
)

const (
	// maxPageChars caps the page text fed to the summarizer.
	maxPageChars = 8000
	// maxPageBytes caps the raw download.
	maxPageBytes = 2 << 20
)

var (
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagPattern        = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// summarizeNode fetches the first detected URL and answers with a single
// non-streamed summary. Retrieval, evaluation and grading never run on this
// path and no citations are emitted.
func (p *Pipeline) summarizeNode(ctx context.Context, st State) (State, error) {
	if len(st.URLs) == 0 {
		return st, errors.New("summarize requested without a detected URL")
	}
	url := normalizeURL(st.URLs[0])
	st.trace(NodeSummarize, fmt.Sprintf("Fetching %s.", url))

	content, err := p.fetchPage(ctx, url)
	if err != nil {
		return st, fmt.Errorf("fetch %s: %w", url, err)
	}

	summary, err := complete(ctx, p.model, []model.Message{
		model.NewUserMessage(fmt.Sprintf(summaryPrompt, content)),
	}, nil)
	if err != nil {
		return st, fmt.Errorf("summarize %s: %w", url, err)
	}

	st.Answer = summary
	if err := st.emit(event.NewTextContent(summary)); err != nil {
		return st, err
	}
	return st, nil
}

// fetchPage downloads a page and reduces it to plain text.
func (p *Pipeline) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "graphrag-summarizer/1.0")

	rsp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", rsp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(rsp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}

	text := stripHTML(string(raw))
	if text == "" {
		return "", errors.New("page has no readable text")
	}
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, nil
}

// stripHTML removes markup and collapses whitespace.
func stripHTML(page string) string {
	text := scriptPattern.ReplaceAllString(page, " ")
	text = tagPattern.ReplaceAllString(text, "\n")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return blankLinePattern.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}
