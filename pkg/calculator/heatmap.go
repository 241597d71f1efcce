package calculator

import "warranty-analytics/pkg/models"

// HeatmapCell is one (cohort, offset) cell. NoData marks cohorts without purchase volume,
// whose 0% claim rate means "unknown", not "no claims".
type HeatmapCell struct {
	MonthsSincePurchase int     `json:"monthsSincePurchase"`
	ClaimCount          int     `json:"claimCount"`
	SurvivalRate        float64 `json:"survivalRate"`
	ClaimRate           float64 `json:"claimRate"`
	NoData              bool    `json:"noData"`
}

// HeatmapRow is one cohort across its emitted offsets.
type HeatmapRow struct {
	CohortMonth    string        `json:"cohortMonth"`
	CohortLabel    string        `json:"cohortLabel"`
	PurchaseVolume int           `json:"purchaseVolume"`
	Cells          []HeatmapCell `json:"cells"`
}

// Heatmap pivots cohort points into rows by cohort and columns by offset.
type Heatmap struct {
	Offsets []int        `json:"offsets"`
	Rows    []HeatmapRow `json:"rows"`
}

// BuildHeatmap groups points by cohort, keeping the order in which cohorts first appear.
// Rows near the completeness cutoff have fewer cells than Offsets.
func BuildHeatmap(points []models.CohortDataPoint) Heatmap {
	var h Heatmap
	rowIndex := map[string]int{}
	maxOffset := -1
	for _, p := range points {
		i, ok := rowIndex[p.CohortMonth]
		if !ok {
			i = len(h.Rows)
			rowIndex[p.CohortMonth] = i
			h.Rows = append(h.Rows, HeatmapRow{
				CohortMonth:    p.CohortMonth,
				CohortLabel:    p.CohortLabel,
				PurchaseVolume: p.PurchaseVolume,
			})
		}
		h.Rows[i].Cells = append(h.Rows[i].Cells, HeatmapCell{
			MonthsSincePurchase: p.MonthsSincePurchase,
			ClaimCount:          p.ClaimCount,
			SurvivalRate:        p.SurvivalRate,
			ClaimRate:           p.ClaimRate,
			NoData:              p.PurchaseVolume == 0,
		})
		maxOffset = max(maxOffset, p.MonthsSincePurchase)
	}
	for k := 0; k <= maxOffset; k++ {
		h.Offsets = append(h.Offsets, k)
	}
	return h
}
