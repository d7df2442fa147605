// Package source provides document source adapters.
package source

import (
	"encoding/json"
	"fmt"
	"os"

	"docsearch/internal/domain"
)

// JSONSource loads documents from a JSON dataset file: an array of
// {doc_id, filename, content} records.
type JSONSource struct {
	path string
}

// NewJSONSource creates a source reading the given dataset file.
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

type jsonRecord struct {
	DocID    *int   `json:"doc_id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Load reads and parses the dataset. Records without an explicit doc_id get
// their array position.
func (s *JSONSource) Load() ([]domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", s.path, err)
	}

	docs := make([]domain.Document, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for i, rec := range records {
		id := i
		if rec.DocID != nil {
			id = *rec.DocID
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate doc_id %d in dataset %s", id, s.path)
		}
		seen[id] = struct{}{}

		docs = append(docs, domain.Document{
			ID:       id,
			Filename: rec.Filename,
			Content:  rec.Content,
		})
	}

	return docs, nil
}
