package chunker

import (
	"regexp"
	"strings"
)

// headerPattern matches markup heading lines: # Title, ## Title, etc.
var headerPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// section is one header-delimited span of a document. Content includes the
// heading line itself. Text before the first heading becomes an untitled
// section at level 0.
type section struct {
	title   string
	level   int
	content string
	start   int // byte offset into the document
	end     int
}

// extractSections splits content on markup heading lines into a linear list
// of titled sections.
func extractSections(content string) []section {
	lines := strings.Split(content, "\n")

	var sections []section
	current := section{}
	offset := 0

	flush := func(end int) {
		if strings.TrimSpace(current.content) != "" {
			current.end = end
			sections = append(sections, current)
		}
	}

	for _, line := range lines {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flush(offset)
			current = section{
				title:   strings.TrimSpace(m[2]),
				level:   len(m[1]),
				content: line + "\n",
				start:   offset,
			}
		} else {
			current.content += line + "\n"
		}
		offset += len(line) + 1
	}
	flush(offset)

	return sections
}

// extractParagraphs splits content on blank lines, dropping heading lines
// and empty paragraphs.
var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

func extractParagraphs(content string) []string {
	parts := paragraphSplit.Split(content, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(stripHeadingLines(p))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func stripHeadingLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if headerPattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// buildOverview assembles a bounded document overview: the filename, all
// heading lines, and a preview of the leading paragraph.
func buildOverview(filename, content string) string {
	lines := strings.Split(content, "\n")

	var headers []string
	var preview string

	for i, line := range lines {
		if headerPattern.MatchString(line) {
			headers = append(headers, line)
			continue
		}
		if preview == "" && strings.TrimSpace(line) != "" {
			var paragraph []string
			for _, next := range lines[i:] {
				if strings.TrimSpace(next) == "" || headerPattern.MatchString(next) {
					break
				}
				paragraph = append(paragraph, strings.TrimSpace(next))
			}
			preview = strings.Join(paragraph, " ")
			if len(preview) > overviewPreviewLimit {
				preview = preview[:overviewPreviewLimit] + "..."
			}
		}
	}

	parts := []string{"Document: " + filename}
	if len(headers) > 0 {
		parts = append(parts, "Structure:\n"+strings.Join(headers, "\n"))
	}
	if preview != "" {
		parts = append(parts, "Content Preview:\n"+preview)
	}

	return strings.Join(parts, "\n\n")
}
