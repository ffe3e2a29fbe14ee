// Package report renders evaluation reports to xlsx workbooks.
package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/yctsai/akasha/internal/core/domain"
)

const sheetName = "Results"

// WriteXLSX writes one evaluation report to path: a summary block followed
// by one row per question.
func WriteXLSX(report *domain.EvalReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create results sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	summary := [][]any{
		{"run_id", report.RunID},
		{"embed_model", report.Combination.EmbedModel},
		{"chunk_size", report.Combination.ChunkSize},
		{"gen_model", report.Combination.GenModel},
		{"top_k", report.Combination.TopK},
		{"strategy", string(report.Combination.Strategy)},
		{"total", report.Total},
		{"correct", report.Correct},
		{"correct_rate", report.CorrectRate},
		{"tokens", report.Tokens},
		{"doc_tokens", report.DocTokens},
		{"duration", report.Duration.String()},
	}
	row := 1
	for _, pair := range summary {
		cell := "A" + strconv.Itoa(row)
		if err := f.SetSheetRow(sheetName, cell, &pair); err != nil {
			return fmt.Errorf("write summary row %d: %w", row, err)
		}
		row++
	}

	row++
	header := []any{"question", "docs", "response", "expected", "got", "correct", "tokens"}
	if err := f.SetSheetRow(sheetName, "A"+strconv.Itoa(row), &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	row++

	for i, rec := range report.Records {
		values := []any{rec.Question, rec.Docs, rec.Response, rec.Expected, rec.Got, rec.Correct, rec.Tokens}
		if err := f.SetSheetRow(sheetName, "A"+strconv.Itoa(row), &values); err != nil {
			return fmt.Errorf("write record row %d: %w", i, err)
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}
