package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/reviewsched/internal/spaced_repetition"
	"github.com/example/reviewsched/pkg/models"
)

// Columns is the fixed column layout shared by import and export files.
var Columns = []string{
	"learner_id",
	"item_id",
	"state",
	"stability",
	"difficulty",
	"repetition_count",
	"last_review_at",
	"next_review_at",
}

// ProgressWriter stores imported progress records.
type ProgressWriter interface {
	Upsert(ctx context.Context, p models.ReviewProgress) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath  string // Path to the Excel or CSV file
	SheetName string // Sheet to read; the first sheet when empty
	StartRow  int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath: path,
		StartRow: 2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Errors         []string
}

// ImportProgress loads progress records from an Excel or CSV file.
// Bad rows are reported in the result and do not stop the import;
// a storage failure does.
func ImportProgress(ctx context.Context, store ProgressWriter, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		p, err := parseRow(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if err := store.Upsert(ctx, p); err != nil {
			return result, errors.Wrapf(err, "failed to store row %d", rowNum)
		}
		result.Imported++
	}
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows")
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseRow(row []string) (models.ReviewProgress, error) {
	p := models.NewReviewProgress(cell(row, 0), cell(row, 1))
	if p.LearnerID == "" || p.ItemID == "" {
		return p, fmt.Errorf("learner_id and item_id cannot be empty")
	}

	var err error
	if s := cell(row, 2); s != "" {
		if p.State, err = models.ParseState(s); err != nil {
			return p, err
		}
	}
	if s := cell(row, 3); s != "" {
		if p.Stability, err = strconv.ParseFloat(s, 64); err != nil || p.Stability < 0 {
			return p, fmt.Errorf("invalid stability: %q", s)
		}
	}
	if s := cell(row, 4); s != "" {
		p.Difficulty, err = strconv.ParseFloat(s, 64)
		if err != nil || p.Difficulty < spaced_repetition.MinDifficulty || p.Difficulty > spaced_repetition.MaxDifficulty {
			return p, fmt.Errorf("invalid difficulty: %q", s)
		}
	}
	if s := cell(row, 5); s != "" {
		if p.RepetitionCount, err = strconv.Atoi(s); err != nil || p.RepetitionCount < 0 {
			return p, fmt.Errorf("invalid repetition_count: %q", s)
		}
	}
	if p.LastReviewAt, err = parseTime(cell(row, 6)); err != nil {
		return p, fmt.Errorf("invalid last_review_at: %v", err)
	}
	if p.NextReviewAt, err = parseTime(cell(row, 7)); err != nil {
		return p, fmt.Errorf("invalid next_review_at: %v", err)
	}
	return p, checkSchedule(&p)
}

// scheduleTolerance absorbs rounding of exported timestamps.
const scheduleTolerance = time.Second

// checkSchedule enforces next_review_at = last_review_at + stability days.
// A missing next_review_at is derived; only never-reviewed rows may omit both.
func checkSchedule(p *models.ReviewProgress) error {
	switch {
	case p.LastReviewAt.IsZero() && p.NextReviewAt.IsZero():
		if p.State != models.StateNew {
			return fmt.Errorf("last_review_at is required for state %s", p.State)
		}
		return nil
	case p.LastReviewAt.IsZero():
		return fmt.Errorf("next_review_at given without last_review_at")
	}

	want := spaced_repetition.NextReviewTime(p.LastReviewAt, p.Stability)
	if p.NextReviewAt.IsZero() {
		p.NextReviewAt = want
		return nil
	}
	if d := p.NextReviewAt.Sub(want); d > scheduleTolerance || d < -scheduleTolerance {
		return fmt.Errorf("next_review_at %s does not match last_review_at + stability (%s)",
			p.NextReviewAt.Format(time.RFC3339), want.Format(time.RFC3339))
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
