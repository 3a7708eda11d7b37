package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/stylist/internal/domain"
)

// promptPreamble is the fixed instruction prepended to every generation
// prompt. Changing it changes the prompt for all requests, so it is a
// constant rather than configuration.
const promptPreamble = "You are a fashion recommendation assistant. " +
	"Given the user query and some product descriptions, " +
	"write a short recommendation that explains the style and match."

// BuildContext renders retrieved items into the grounding context string, one
// line per item in search-result order. The template shape is fixed: missing
// fields render as empty strings, never dropped, so prompt construction stays
// deterministic.
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf(
			"Name: %s. Category: %s. Description: %s.",
			r.Item.DisplayName, r.Item.Category, r.Item.Description,
		)
	}
	return strings.Join(parts, "\n")
}

// BuildPrompt assembles the full summarizer input from the user query and the
// rendered context.
func BuildPrompt(query, context string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nUser query: ")
	b.WriteString(query)
	b.WriteString("\n\nRelevant products:\n")
	b.WriteString(context)
	b.WriteString("\n\nRecommendation:")
	return b.String()
}
