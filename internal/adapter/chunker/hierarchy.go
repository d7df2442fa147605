package chunker

import (
	"strings"

	"docsearch/internal/domain"
)

// chunkSections emits one chunk per header-delimited section. Sections whose
// stripped content is shorter than the minimum size are dropped; ordinals
// stay contiguous over the kept sections.
func (c *Chunker) chunkSections(doc domain.Document) []domain.Chunk {
	sections := extractSections(doc.Content)

	var chunks []domain.Chunk
	for _, sec := range sections {
		if len(strings.TrimSpace(sec.content)) < c.minSize {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:          sectionChunkID(doc.ID, len(chunks)),
			DocID:       doc.ID,
			Ordinal:     len(chunks),
			Content:     sec.content,
			Type:        domain.ChunkSection,
			Level:       sec.level,
			StartOffset: sec.start,
			EndOffset:   sec.end,
			Metadata:    sectionMetadata(sec.title),
		})
	}

	return chunks
}

// chunkHierarchical emits a document overview at level 0, one chunk per
// section at level 1, and one chunk per paragraph at level 2.
func (c *Chunker) chunkHierarchical(doc domain.Document) []domain.Chunk {
	overview := buildOverview(doc.Filename, doc.Content)

	chunks := []domain.Chunk{{
		ID:          overviewChunkID(doc.ID),
		DocID:       doc.ID,
		Ordinal:     0,
		Content:     overview,
		Type:        domain.ChunkOverview,
		Level:       0,
		StartOffset: 0,
		EndOffset:   len(overview),
	}}

	for _, sec := range extractSections(doc.Content) {
		if len(strings.TrimSpace(sec.content)) >= c.minSize {
			chunks = append(chunks, domain.Chunk{
				ID:          sectionChunkID(doc.ID, len(chunks)),
				DocID:       doc.ID,
				Ordinal:     len(chunks),
				Content:     sec.content,
				Type:        domain.ChunkSection,
				Level:       1,
				StartOffset: sec.start,
				EndOffset:   sec.end,
				Metadata:    sectionMetadata(sec.title),
			})
		}

		for _, paragraph := range extractParagraphs(sec.content) {
			if len(paragraph) < c.minSize {
				continue
			}
			var meta map[string]string
			if sec.title != "" {
				meta = map[string]string{domain.MetaParentSection: sec.title}
			}
			chunks = append(chunks, domain.Chunk{
				ID:          paragraphChunkID(doc.ID, len(chunks)),
				DocID:       doc.ID,
				Ordinal:     len(chunks),
				Content:     paragraph,
				Type:        domain.ChunkParagraph,
				Level:       2,
				StartOffset: 0, // paragraph offsets are relative to their section
				EndOffset:   len(paragraph),
				Metadata:    meta,
			})
		}
	}

	return chunks
}

// chunkHybrid keeps sections whole when they fit in one window and
// sub-chunks oversized sections with the sliding-window algorithm.
// Sub-chunks sit one hierarchy level below their section.
func (c *Chunker) chunkHybrid(doc domain.Document) []domain.Chunk {
	sections := extractSections(doc.Content)

	var chunks []domain.Chunk
	idx := 0
	for _, sec := range sections {
		if len(strings.TrimSpace(sec.content)) < c.minSize {
			continue
		}

		words := strings.Fields(sec.content)
		if len(words) <= c.size {
			chunks = append(chunks, domain.Chunk{
				ID:          sectionChunkID(doc.ID, idx),
				DocID:       doc.ID,
				Ordinal:     len(chunks),
				Content:     sec.content,
				Type:        domain.ChunkSection,
				Level:       sec.level,
				StartOffset: sec.start,
				EndOffset:   sec.end,
				Metadata:    sectionMetadata(sec.title),
			})
			idx++
			continue
		}

		for sub, span := range c.slideWindow(words) {
			chunks = append(chunks, domain.Chunk{
				ID:          hybridChunkID(doc.ID, idx, sub),
				DocID:       doc.ID,
				Ordinal:     len(chunks),
				Content:     span.content,
				Type:        domain.ChunkSubSection,
				Level:       sec.level + 1,
				StartOffset: span.start, // word offsets within the section
				EndOffset:   span.end,
				Metadata:    sectionMetadata(sec.title),
			})
		}
		idx++
	}

	return chunks
}

func sectionMetadata(title string) map[string]string {
	if title == "" {
		return nil
	}
	return map[string]string{domain.MetaSectionTitle: title}
}
