package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const backupSheet = "Questions"

var backupHeaders = []string{"ID", "Question", "Options", "Correct Answers", "Explanation", "Updated At"}

// ExportBackupXLSX renders questions as a spreadsheet, one question per row.
// Options are listed one per line with their letter; correct answers use the
// same letters.
func ExportBackupXLSX(questions []model.Question) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), backupSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for col, header := range backupHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(backupSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, q := range questions {
		row := []interface{}{
			q.ID,
			q.Text,
			formatOptions(q.Options),
			formatLetters(q.CorrectAnswers),
			strings.Join(q.Explanation, "\n\n"),
			q.UpdatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(backupSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(backupSheet, "B", "C", 60)
	_ = f.SetColWidth(backupSheet, "E", "E", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optionLetter(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("#%d", i+1)
}

func formatOptions(options []string) string {
	lines := make([]string, len(options))
	for i, opt := range options {
		lines[i] = optionLetter(i) + ". " + opt
	}
	return strings.Join(lines, "\n")
}

func formatLetters(indices []int) string {
	letters := make([]string, len(indices))
	for i, idx := range indices {
		letters[i] = optionLetter(idx)
	}
	return strings.Join(letters, ", ")
}
