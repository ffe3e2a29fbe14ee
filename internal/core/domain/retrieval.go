package domain

// Chunk is the retrieval unit: a span of document text plus its provenance.
// Equality for deduplication is by Content only, since the same text can come
// back from several search rounds under different scores.
type Chunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Candidate is one similarity-search hit: a chunk with the score, distance
// and stored embedding reported by the vector store. Lower distance means
// more relevant; callers must not assume distance == 1-score.
type Candidate struct {
	Chunk     Chunk     `json:"chunk"`
	Score     float64   `json:"score"`
	Distance  float64   `json:"distance"`
	Embedding []float32 `json:"-"`
}

// RetrievalResult is the orchestrator output: unique chunks in
// relevance-descending order and the estimated token total of their content.
type RetrievalResult struct {
	Chunks []Chunk `json:"chunks"`
	Tokens int     `json:"tokens"`
}

// Completion is the structured response envelope from the generation model.
// Answer is the final user-facing text; Trace carries intermediate
// reasoning when the backend exposes it.
type Completion struct {
	Answer string `json:"answer"`
	Trace  string `json:"trace,omitempty"`
}

type Answer struct {
	Text    string  `json:"text"`
	Sources []Chunk `json:"sources"`
	Tokens  int     `json:"tokens"`
}

// Language tags affect token estimation only.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageChinese  Language = "zh"
	LanguageJapanese Language = "ja"
	LanguageKorean   Language = "ko"
)

// CJK reports whether the language has no whitespace word boundaries, in
// which case tokens are estimated per character. "ch" is accepted as a
// legacy alias for Chinese.
func (l Language) CJK() bool {
	switch l {
	case LanguageChinese, LanguageJapanese, LanguageKorean, "ch":
		return true
	default:
		return false
	}
}
