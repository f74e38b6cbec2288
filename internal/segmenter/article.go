package segmenter

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"anayasa/internal/domain"
)

// DefaultBoundaryPattern matches article headings such as "Madde 12 –",
// "Geçici Madde 3 –" or "Article 1 —".
const DefaultBoundaryPattern = `(?:Geçici )?(?:Madde|Article) \d+ [–—]`

// ArticleSegmenter splits corpus text into articles at heading markers.
type ArticleSegmenter struct {
	boundary  *regexp.Regexp
	sourceTag string
}

// NewArticleSegmenter compiles the boundary pattern. An empty pattern selects
// DefaultBoundaryPattern.
func NewArticleSegmenter(pattern, sourceTag string) (*ArticleSegmenter, error) {
	if pattern == "" {
		pattern = DefaultBoundaryPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile boundary pattern: %w", err)
	}
	return &ArticleSegmenter{boundary: re, sourceTag: sourceTag}, nil
}

// Segment returns the articles of text in document order. Text before the
// first heading is discarded, and headings without a body yield nothing.
func (s *ArticleSegmenter) Segment(text string) []domain.Unit {
	marks := s.boundary.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		return nil
	}
	var units []domain.Unit
	seen := make(map[string]int, len(marks))
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		label := strings.TrimSpace(text[m[0]:m[1]])
		body := strings.TrimSpace(text[m[1]:end])
		if label == "" || body == "" {
			continue
		}
		seen[label]++
		if n := seen[label]; n > 1 {
			label = label + " (" + strconv.Itoa(n) + ")"
		}
		units = append(units, domain.Unit{
			Label:     label,
			Body:      body,
			SourceTag: s.sourceTag,
			Ordinal:   len(units),
		})
	}
	return units
}

// LoadCorpus reads the whole corpus file.
func LoadCorpus(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
	}
	return string(data), nil
}
