// Package questions parses single-choice question files. Each non-empty
// line holds whitespace-separated fields: the question text, two or more
// options, and a trailing 1-based index of the correct option. Fields that
// contain spaces are double-quoted.
package questions

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/yctsai/akasha/internal/core/domain"
)

func Parse(r io.Reader) ([]domain.Question, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []domain.Question
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := splitFields(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		q, err := buildQuestion(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func buildQuestion(fields []string) (domain.Question, error) {
	if len(fields) < 4 {
		return domain.Question{}, fmt.Errorf("need question, at least 2 options and an answer, got %d fields", len(fields))
	}

	last := fields[len(fields)-1]
	answer, err := strconv.Atoi(last)
	if err != nil {
		return domain.Question{}, fmt.Errorf("answer field %q is not a number", last)
	}

	options := fields[1 : len(fields)-1]
	if answer < 1 || answer > len(options) {
		return domain.Question{}, fmt.Errorf("answer %d out of range for %d options", answer, len(options))
	}

	return domain.Question{
		Text:    fields[0],
		Options: options,
		Answer:  answer,
	}, nil
}

// splitFields splits on whitespace, keeping double-quoted runs together.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	hasField := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasField = true
		case unicode.IsSpace(r) && !inQuote:
			if hasField {
				fields = append(fields, cur.String())
				cur.Reset()
				hasField = false
			}
		default:
			cur.WriteRune(r)
			hasField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if hasField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
