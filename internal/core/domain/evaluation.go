package domain

import "time"

// Question is one single-choice item from a question file. Answer is the
// 1-based index of the correct option.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// SentinelErrorAnswer is recorded for a question whose completion call
// failed, so a single backend hiccup does not abort the whole batch.
const SentinelErrorAnswer = "error"

type EvalRecord struct {
	Question string `json:"question"`
	Docs     string `json:"docs"`
	Response string `json:"response"`
	Expected int    `json:"expected"`
	Got      int    `json:"got"`
	Correct  bool   `json:"correct"`
	Tokens   int    `json:"tokens"`
}

type EvalReport struct {
	RunID       string        `json:"run_id"`
	Combination Combination   `json:"combination"`
	Total       int           `json:"total"`
	Correct     int           `json:"correct"`
	CorrectRate float64       `json:"correct_rate"`
	Tokens      int           `json:"tokens"`
	DocTokens   int           `json:"doc_tokens"`
	Duration    time.Duration `json:"duration"`
	Records     []EvalRecord  `json:"records"`
}

// Combination is one point of the grid-search sweep.
type Combination struct {
	EmbedModel string   `json:"embed_model"`
	ChunkSize  int      `json:"chunk_size"`
	GenModel   string   `json:"gen_model"`
	TopK       int      `json:"top_k"`
	Strategy   Strategy `json:"strategy"`
}

type CombinationResult struct {
	Combination   Combination `json:"combination"`
	CorrectRate   float64     `json:"correct_rate"`
	Tokens        int         `json:"tokens"`
	CostEffective float64     `json:"cost_effective"`
}
