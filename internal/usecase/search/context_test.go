package search

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/stylist/internal/domain"
)

func TestBuildContext_OneLinePerItemInOrder(t *testing.T) {
	results := []domain.SearchResult{
		{Item: domain.CatalogItem{DisplayName: "Red Shirt", Category: "Apparel", Description: "Bright"}},
		{Item: domain.CatalogItem{DisplayName: "Hat", Category: "Accessories", Description: "Wide brim"}},
	}

	got := BuildContext(results)
	want := "Name: Red Shirt. Category: Apparel. Description: Bright.\n" +
		"Name: Hat. Category: Accessories. Description: Wide brim."
	if got != want {
		t.Fatalf("context mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestBuildContext_MissingFieldsRenderEmpty(t *testing.T) {
	results := []domain.SearchResult{
		{Item: domain.CatalogItem{DisplayName: "Hat"}},
	}

	got := BuildContext(results)
	want := "Name: Hat. Category: . Description: ."
	if got != want {
		t.Fatalf("expected fixed-shape line, got %q", got)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("summer outfit", "Name: Hat. Category: . Description: .")

	if !strings.HasPrefix(prompt, promptPreamble) {
		t.Error("prompt must start with the fixed preamble")
	}
	if !strings.Contains(prompt, "User query: summer outfit") {
		t.Error("prompt must contain the user query")
	}
	if !strings.Contains(prompt, "Name: Hat.") {
		t.Error("prompt must contain the rendered context")
	}
	if !strings.HasSuffix(prompt, "Recommendation:") {
		t.Error("prompt must end with the generation cue")
	}
}
