// Package report writes computed series to files and renders them in the terminal.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"warranty-analytics/pkg/models"
)

// WriteJSON writes v as indented JSON to path, creating parent directories. A path of "-" writes to stdout.
func WriteJSON(path string, v any) error {
	if path == "-" {
		return EncodeJSON(os.Stdout, v)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := EncodeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

var cohortHeader = []string{
	"cohort_month", "cohort_label", "months_since_purchase",
	"claim_count", "purchase_volume", "survival_rate", "claim_rate",
}

// WriteCohortCSV writes one row per cohort point in emission order.
func WriteCohortCSV(w io.Writer, points []models.CohortDataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cohortHeader); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			p.CohortMonth,
			p.CohortLabel,
			strconv.Itoa(p.MonthsSincePurchase),
			strconv.Itoa(p.ClaimCount),
			strconv.Itoa(p.PurchaseVolume),
			strconv.FormatFloat(p.SurvivalRate, 'f', 4, 64),
			strconv.FormatFloat(p.ClaimRate, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
