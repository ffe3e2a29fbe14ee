package domain

import "fmt"

// Strategy selects the retrieval/ranking policy. The set is closed: an
// unknown value is a configuration error, never a silent default.
type Strategy string

const (
	StrategyMerge Strategy = "merge"
	StrategyMMR   Strategy = "mmr"
	StrategySVM   Strategy = "svm"
	StrategyTFIDF Strategy = "tfidf"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyMerge, StrategyMMR, StrategySVM, StrategyTFIDF:
		return Strategy(s), nil
	default:
		return "", WrapError(ErrInvalidStrategy, "parse strategy", fmt.Errorf("unknown strategy %q", s))
	}
}
