package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/yctsai/akasha/internal/core/domain"
)

// EstimateTokens estimates the model-token cost of text. CJK-class
// languages have no whitespace word boundaries, so each rune counts as one
// token; everything else is counted by whitespace-delimited words.
func EstimateTokens(text string, lang domain.Language) int {
	if text == "" {
		return 0
	}
	if lang.CJK() {
		return utf8.RuneCountInString(text)
	}
	return len(strings.Fields(text))
}

// DocsTokens is the aggregate estimate over a chunk list, used for budget
// accounting and document-length telemetry.
func DocsTokens(lang domain.Language, chunks []domain.Chunk) int {
	total := 0
	for _, chunk := range chunks {
		total += EstimateTokens(chunk.Content, lang)
	}
	return total
}
