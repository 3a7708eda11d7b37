package domain

import "context"

// Summarizer turns a retrieval-grounded prompt into free-form recommendation
// text. The output is used verbatim (whitespace-trimmed); it is never parsed.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
