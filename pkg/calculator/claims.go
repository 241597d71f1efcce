package calculator

import (
	"sort"

	"warranty-analytics/pkg/exposure"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/periods"
)

const (
	// TopCategories is how many categories keep their own series in a stacked chart.
	TopCategories = 15

	OtherCategory     = "Other"
	AllClaimsCategory = "All Claims"
)

// ClaimsRateResult is the claims-percentage-of-exposure series.
type ClaimsRateResult struct {
	Points  []models.ChartDataPoint `json:"points"`
	Quality models.DataQuality      `json:"quality"`
}

// ClaimsOverTimeResult is a stacked category series plus its ordered category list.
type ClaimsOverTimeResult struct {
	Points     []models.StackedChartDataPoint `json:"points"`
	Categories []string                       `json:"categories"`
	Quality    models.DataQuality             `json:"quality"`
}

// ClaimsPercentageByPeriod buckets valid claims by filing period and relates the claim count to the
// summed exposure days of the bucket.
func ClaimsPercentageByPeriod(records []models.Registration, g models.Granularity, claimType models.ClaimType) ClaimsRateResult {
	valid, quality := exposure.Evaluate(records, claimType)

	type bucket struct {
		claims int
		days   int
	}
	buckets := map[string]*bucket{}
	for _, e := range valid {
		key := periods.Key(e.ClaimedAt, g)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.claims++
		b.days += e.Days
	}

	points := make([]models.ChartDataPoint, 0, len(buckets))
	for _, key := range sortedKeys(buckets) {
		b := buckets[key]
		pct := 0.0
		if b.days > 0 {
			pct = float64(b.claims) / float64(b.days) * 100
		}
		points = append(points, models.ChartDataPoint{
			Period:            key,
			PeriodLabel:       periods.Label(key, g),
			ClaimCount:        b.claims,
			TotalExposureDays: b.days,
			ClaimsPercentage:  pct,
		})
	}
	return ClaimsRateResult{Points: points, Quality: quality}
}

// ClaimsOverTime counts valid claims per filing period and category. The TopCategories largest
// categories keep their own series; the rest are summed into "Other" with a per-period breakdown.
func ClaimsOverTime(records []models.Registration, g models.Granularity, groupBy models.GroupBy, claimType models.ClaimType) ClaimsOverTimeResult {
	valid, quality := exposure.Evaluate(records, claimType)

	buckets := map[string]map[string]int{}
	totals := map[string]int{}
	for _, e := range valid {
		key := periods.Key(e.ClaimedAt, g)
		category := CategoryOf(e.Record, groupBy)
		if buckets[key] == nil {
			buckets[key] = map[string]int{}
		}
		buckets[key][category]++
		totals[category]++
	}

	ranked := make([]string, 0, len(totals))
	for c := range totals {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] != totals[ranked[j]] {
			return totals[ranked[i]] > totals[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	top, rest := splitTop(ranked)

	points := make([]models.StackedChartDataPoint, 0, len(buckets))
	for _, key := range sortedKeys(buckets) {
		counts := buckets[key]
		p := models.StackedChartDataPoint{
			Period:      key,
			PeriodLabel: periods.Label(key, g),
			Counts:      make(map[string]int, len(top)+1),
		}
		for _, c := range top {
			p.Counts[c] = counts[c]
			p.Total += counts[c]
		}
		if len(rest) > 0 {
			other := 0
			for _, c := range rest {
				if n := counts[c]; n > 0 {
					if p.OtherBreakdown == nil {
						p.OtherBreakdown = map[string]int{}
					}
					p.OtherBreakdown[c] = n
					other += n
				}
			}
			p.Counts[OtherCategory] = other
			p.Total += other
		}
		points = append(points, p)
	}

	categories := append([]string{}, top...)
	if len(rest) > 0 {
		categories = append(categories, OtherCategory)
	}
	return ClaimsOverTimeResult{Points: points, Categories: categories, Quality: quality}
}

// splitTop keeps the first TopCategories ranked categories and returns the rest for merging.
// Once merging happens a real "Other" category always goes to the rest, so it lands in the merged
// bucket and its breakdown instead of colliding with it.
func splitTop(ranked []string) (top, rest []string) {
	if len(ranked) <= TopCategories {
		return ranked, nil
	}
	candidates := make([]string, 0, len(ranked))
	realOther := false
	for _, c := range ranked {
		if c == OtherCategory {
			realOther = true
			continue
		}
		candidates = append(candidates, c)
	}
	top = candidates[:TopCategories]
	rest = append([]string{}, candidates[TopCategories:]...)
	if realOther {
		rest = append(rest, OtherCategory)
	}
	return top, rest
}

// CategoryOf returns the stacked-chart category of r, with an "Unknown ..." fallback for missing values.
func CategoryOf(r models.Registration, groupBy models.GroupBy) string {
	switch groupBy {
	case models.GroupProductName:
		return orUnknown(r.ProductName, "Unknown Product")
	case models.GroupSKU:
		return orUnknown(r.ProductSKU, "Unknown SKU")
	case models.GroupReason:
		return orUnknown(r.FieldData.Reason, "Unknown Reason")
	case models.GroupPurchaseChannel:
		return orUnknown(r.FieldData.PurchaseChannel, "Unknown Channel")
	case models.GroupSerialNumber:
		if len(r.SerialNumbers) > 0 {
			return orUnknown(r.SerialNumbers[0], "Unknown Serial")
		}
		return "Unknown Serial"
	default:
		return AllClaimsCategory
	}
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
