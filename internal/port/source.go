package port

import "docsearch/internal/domain"

// DocumentSource supplies the raw corpus. Records are read-only to the core.
type DocumentSource interface {
	Load() ([]domain.Document, error)
}
