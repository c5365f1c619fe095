package ingest

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pawsona/pawsona/internal/models"
)

type knowledgeEntry struct {
	TypeCode string `json:"type_code"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// LoadKnowledge reads curated knowledge entries from a JSON file and turns
// them into store documents with fresh IDs. Entries must carry a title and
// content; the type code may be empty for advice that applies to every type.
func LoadKnowledge(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read knowledge file %s", path)
	}

	var entries []knowledgeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "parse knowledge file %s", path)
	}

	docs := make([]models.Document, 0, len(entries))
	for i, e := range entries {
		title := strings.TrimSpace(e.Title)
		content := strings.TrimSpace(e.Content)
		if title == "" {
			return nil, errors.Errorf("knowledge entry %d has no title", i)
		}
		if content == "" {
			return nil, errors.Errorf("knowledge entry %d (%s) has no content", i, title)
		}

		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = "knowledge"
		}

		docs = append(docs, models.Document{
			ID:       uuid.NewString(),
			TypeCode: strings.ToUpper(strings.TrimSpace(e.TypeCode)),
			Category: category,
			Title:    title,
			Content:  content,
		})
	}
	return docs, nil
}
