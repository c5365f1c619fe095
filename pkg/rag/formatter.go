package rag

import (
	"fmt"
	"strings"

	"github.com/pawsona/pawsona/internal/models"
)

// noContextFound is what prompt construction receives when retrieval came
// back empty. It is deliberately not an empty string so the model always
// gets an explicit signal instead of a blank context block.
const noContextFound = "No relevant information found."

// FormatContext renders ranked retrieval results into a single context
// block for prompting. Documents appear in ranking order, one numbered
// block each, separated by blank lines.
func FormatContext(docs []models.RetrievedDocument) string {
	if len(docs) == 0 {
		return noContextFound
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[Doc %d] %s\n%s\n(type: %s, relevance: %.2f)",
			i+1, doc.Title, doc.Content, doc.TypeCode, doc.Score)
	}
	return strings.Join(blocks, "\n\n")
}
