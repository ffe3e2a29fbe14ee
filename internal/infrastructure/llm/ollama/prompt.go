package ollama

import (
	"fmt"
	"strings"

	"github.com/yctsai/akasha/internal/core/domain"
)

func buildAnswerPrompt(question string, docs []domain.Chunk) string {
	return fmt.Sprintf(`Answer the user question only from the context below.
If the context is insufficient, say it directly.

Question:
%s

Context:
%s`, question, renderDocs(docs))
}

func buildChoicePrompt(question string, options []string, docs []domain.Chunk) string {
	var optionList strings.Builder
	for i, option := range options {
		fmt.Fprintf(&optionList, "%d. %s\n", i+1, option)
	}

	return fmt.Sprintf(`You answer a single-choice question using only the context below.
Return a strict JSON object with one key:
answer (integer, the 1-based number of the correct option).
No markdown, no extra keys.

Question:
%s

Options:
%s
Context:
%s`, question, optionList.String(), renderDocs(docs))
}

func buildSummaryPrompt(text, query string) string {
	return fmt.Sprintf(`Summarize the text below, keeping every detail relevant to the question and dropping the rest. Answer with the summary only.

Question:
%s

Text:
%s`, query, text)
}

func renderDocs(docs []domain.Chunk) string {
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] file=%s\n%s\n\n", i+1, doc.Metadata["filename"], doc.Content)
	}
	return b.String()
}
