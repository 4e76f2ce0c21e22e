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
	"regexp"
	"strings"
)

// urlPattern matches explicit http(s) URLs and bare www. hosts.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+|www\.[^\s<>"')\]]+`)

// trailingPunct is stripped from matched URLs; sentences often end right
// after a link.
const trailingPunct = ".,;:!?"

// ExtractURLs returns the distinct URLs found in text, in order of first
// appearance, with trailing punctuation removed.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		u := strings.TrimRight(m, trailingPunct)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// normalizeURL prepends a scheme to bare www. hosts so they are fetchable.
func normalizeURL(u string) string {
	if strings.HasPrefix(u, "www.") {
		return "https://" + u
	}
	return u
}
