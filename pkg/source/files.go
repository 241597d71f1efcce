// Package source loads registrations and purchase volumes from the vendor API, JSON exports and CSV sheets.
package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"warranty-analytics/pkg/models"
)

// LoadFile reads a JSON array of registrations, as exported from the vendor dashboard.
func LoadFile(path string) ([]models.Registration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var regs []models.Registration
	if err := json.NewDecoder(f).Decode(&regs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return regs, nil
}

var (
	monthColumns   = []string{"year_month", "month", "yearmonth", "period"}
	productColumns = []string{"product", "product_type", "product_name"}
	countColumns   = []string{"purchase_count", "count", "purchases", "units", "volume"}
)

// LoadVolumesCSV reads purchase volumes from a sheet with a header row. Columns are matched by name,
// ignoring case, spaces, dashes and underscores. Rows are validated but not deduplicated.
func LoadVolumesCSV(r io.Reader) ([]models.PurchaseVolume, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("volume sheet is empty")
		}
		return nil, err
	}
	idx := normalizeHeaders(headers)

	monthIdx, ok := findColumn(idx, monthColumns)
	if !ok {
		return nil, errors.New("volume sheet: missing month column")
	}
	productIdx, ok := findColumn(idx, productColumns)
	if !ok {
		return nil, errors.New("volume sheet: missing product column")
	}
	countIdx, ok := findColumn(idx, countColumns)
	if !ok {
		return nil, errors.New("volume sheet: missing count column")
	}

	var out []models.PurchaseVolume
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		raw := strings.ReplaceAll(getValue(record, countIdx), ",", "")
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid count %q", line, raw)
		}
		v := models.PurchaseVolume{
			YearMonth:     getValue(record, monthIdx),
			Product:       getValue(record, productIdx),
			PurchaseCount: count,
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for i, h := range headers {
		n := normalizeHeader(h)
		if _, exists := result[n]; !exists {
			result[n] = i
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(value)
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if i, ok := headers[normalizeHeader(name)]; ok {
			return i, true
		}
	}
	return -1, false
}

func getValue(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
