package rag

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/vector"
)

const answerPromptTemplate = `You are a helpful AI assistant. Answer the user's question based STRICTLY on the provided context from their documents. 
If the answer cannot be found in the context, say "I don't have enough information in the uploaded documents to answer this question."

Context from documents:
%s

User Question: %s

Instructions:
- Answer based only on the provided context
- Be concise and accurate
- If you reference specific information, mention which source [number] it came from
- Do not make up information not present in the context

Answer:`

const titlePromptTemplate = `Generate a short, concise title (max 6 words) for a conversation that starts with this question: "%s"

Return only the title, nothing else.`

// BuildContext numbers the retrieved chunks from 1 and separates them with a blank line.
func BuildContext(results []vector.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, r.Content)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt returns the answer prompt for query grounded on results.
func BuildPrompt(query string, results []vector.SearchResult) string {
	return fmt.Sprintf(answerPromptTemplate, BuildContext(results), query)
}

// BuildTitlePrompt returns the prompt used to name a conversation after its first message.
func BuildTitlePrompt(firstMessage string) string {
	return fmt.Sprintf(titlePromptTemplate, firstMessage)
}
