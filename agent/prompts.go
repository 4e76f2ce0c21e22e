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
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-graphrag-go/knowledge"
)

// defaultSystemPrompt is the generator persona used when the request carries
// no custom prompt.
const defaultSystemPrompt = `You are a knowledgeable assistant answering questions from a technical knowledge base.

Answer the user's question using ONLY the provided context sources. Cite every claim with the marker [Source N], where N is the number of the supporting source section. Only cite numbers that appear in the context. If several sources support a claim, cite them all. Answer in the language of the question.`

// intentPrompt classifies a query containing URLs. One word reply.
const intentPrompt = `The user message below contains one or more URLs. Decide whether the user primarily wants a summary of the linked page, or is asking a question that should be answered from the knowledge base.

Reply with exactly one word:
DIRECT_SUMMARY if the user wants the linked page summarized.
RAG_QUERY if the user is asking a knowledge question.

User message:
%s`

// evaluatorPrompt asks whether the retrieved snippets suffice to answer.
const evaluatorPrompt = `You judge whether retrieved context is sufficient to answer a question.

Question:
%s

Retrieved context:
%s

Is this context sufficient to give a grounded, complete answer? Reply with YES or NO on the first line, then one short sentence of rationale.`

// graderPrompt asks whether the final reranked context is on-topic.
const graderPrompt = `You judge whether context is relevant to a question.

Question:
%s

Context:
%s

Is this context actually about the question's topic, so that an answer grounded in it would be on-topic? Reply with YES or NO on the first line, then one short sentence of rationale.`

// summaryPrompt drives direct URL summarization.
const summaryPrompt = `Summarize the following web page content concisely. Preserve the key facts and structure; omit navigation noise. Answer in the language of the page.

Page content:
%s`

// fallbackAnswer is the deterministic non-answer used when grading rejects
// the context. It never carries citations.
const fallbackAnswer = "I could not find enough relevant information in the knowledge base to answer this question. " +
	"Try rephrasing the question or narrowing it to topics covered by the uploaded documents."

// buildContextBlock renders candidates as numbered sections matching the
// citation ordinals the generator is allowed to emit.
func buildContextBlock(ranked []RankedSource) string {
	if len(ranked) == 0 {
		return "(no context)"
	}
	var b strings.Builder
	for _, rs := range ranked {
		fmt.Fprintf(&b, "[Source %d] (%s, score %.2f)\n%s\n\n", rs.Ordinal, rs.Origin, rs.Score, rs.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// snippetBlock renders raw candidates for a judgment call, capped to keep it
// cheap.
func snippetBlock(candidates []knowledge.Candidate, maxSnippets, maxChars int) string {
	if len(candidates) == 0 {
		return "(no context)"
	}
	if maxSnippets > 0 && len(candidates) > maxSnippets {
		candidates = candidates[:maxSnippets]
	}
	var b strings.Builder
	for i, c := range candidates {
		content := c.Content
		if maxChars > 0 && len(content) > maxChars {
			content = content[:maxChars]
		}
		fmt.Fprintf(&b, "%d. (%s, score %.2f) %s\n", i+1, c.Origin, c.Score, content)
	}
	return strings.TrimRight(b.String(), "\n")
}
