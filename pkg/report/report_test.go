package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/models"
)

func samplePoints() []models.CohortDataPoint {
	return []models.CohortDataPoint{
		{CohortMonth: "2024-01", CohortLabel: "Jan 2024", MonthsSincePurchase: 0, ClaimCount: 1, PurchaseVolume: 100, SurvivalRate: 99, ClaimRate: 1},
		{CohortMonth: "2024-01", CohortLabel: "Jan 2024", MonthsSincePurchase: 1, ClaimCount: 20, PurchaseVolume: 100, SurvivalRate: 80, ClaimRate: 20},
		{CohortMonth: "2024-02", CohortLabel: "Feb 2024", MonthsSincePurchase: 0, ClaimCount: 3, PurchaseVolume: 0},
	}
}

func TestWriteCohortCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCohortCSV(&buf, samplePoints()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, cohortHeader, rows[0])
	assert.Equal(t, []string{"2024-01", "Jan 2024", "1", "20", "100", "80.0000", "20.0000"}, rows[2])
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cohort.json")
	require.NoError(t, WriteJSON(path, samplePoints()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back []models.CohortDataPoint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, samplePoints(), back)
}

func TestRenderHeatmap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, calculator.BuildHeatmap(samplePoints())))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "M1")
	assert.Contains(t, lines[1], "Jan 2024")
	assert.Contains(t, lines[1], "99.0%")
	assert.Contains(t, lines[1], "80.0%")
	assert.Contains(t, lines[2], "N/A")
	assert.NotContains(t, lines[2], "%")
}

func TestRenderHeatmap_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, calculator.Heatmap{}))
	assert.Contains(t, buf.String(), "no cohorts")
}

func TestRenderRates(t *testing.T) {
	var buf bytes.Buffer
	err := RenderRates(&buf, []models.ChartDataPoint{
		{Period: "2024-03", PeriodLabel: "Mar 2024", ClaimCount: 2, TotalExposureDays: 400, ClaimsPercentage: 0.5},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Mar 2024")
	assert.Contains(t, buf.String(), "0.500%")
	assert.Contains(t, buf.String(), "400")
}

func TestRenderStacked(t *testing.T) {
	res := calculator.ClaimsOverTimeResult{
		Points: []models.StackedChartDataPoint{{
			Period:         "2024-03",
			PeriodLabel:    "Mar 2024",
			Total:          6,
			Counts:         map[string]int{"Cracked": 3, "Other": 2, "Battery": 1, "Hinge": 0},
			OtherBreakdown: map[string]int{"Lid": 2},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderStacked(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "Mar 2024  total 6")
	assert.Less(t, strings.Index(out, "Cracked"), strings.Index(out, "Battery"))
	assert.Less(t, strings.Index(out, "Other"), strings.Index(out, "Lid"))
	assert.NotContains(t, out, "Hinge")
}

func TestByCount(t *testing.T) {
	got := byCount(map[string]int{"b": 2, "a": 2, "c": 5, "z": 0})
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestRenderFacets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFacets(&buf, models.FilterValues{
		ProductNames: []string{"Dental Pod", "Zima Go"},
		Reasons:      []string{"Cracked"},
	}))
	out := buf.String()
	assert.Contains(t, out, "Products (2)")
	assert.Contains(t, out, "  Zima Go")
	assert.Contains(t, out, "SKUs (0)")
}
