package excel

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/reviewsched/pkg/models"
)

const exportSheet = "Progress"

// ProgressLister lists a learner's progress records.
type ProgressLister interface {
	ListByLearner(ctx context.Context, learnerID string) ([]models.ReviewProgress, error)
}

// ExportProgress writes every progress record of a learner to path.
// The format follows the extension: .csv, otherwise .xlsx.
// It returns the number of records written.
func ExportProgress(ctx context.Context, store ProgressLister, learnerID, path string) (int, error) {
	records, err := store.ListByLearner(ctx, learnerID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list progress")
	}

	rows := make([][]string, 0, len(records))
	for _, p := range records {
		rows = append(rows, formatRow(p))
	}

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		err = writeCSV(path, rows)
	} else {
		err = writeExcel(path, rows)
	}
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func formatRow(p models.ReviewProgress) []string {
	return []string{
		p.LearnerID,
		p.ItemID,
		p.State.String(),
		strconv.FormatFloat(p.Stability, 'f', -1, 64),
		strconv.FormatFloat(p.Difficulty, 'f', -1, 64),
		strconv.Itoa(p.RepetitionCount),
		formatTime(p.LastReviewAt),
		formatTime(p.NextReviewAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Columns); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrap(err, "failed to write rows")
	}
	return file.Close()
}

func writeExcel(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}
	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save Excel file")
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, "invalid cell")
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(exportSheet, axis, &cells); err != nil {
		return errors.Wrapf(err, "failed to write row %d", rowNum)
	}
	return nil
}
