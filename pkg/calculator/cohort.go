package calculator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"warranty-analytics/pkg/exposure"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/periods"
	"warranty-analytics/pkg/products"
)

// warrantyChannels are the purchase channels whose warranty claims enter the cohort analysis.
var warrantyChannels = []string{
	"Shop App",
	"Zima Dental Website",
	"Zima Dental Website or Shop App",
}

// CohortResult holds the emitted cohort points and how the input records were used.
type CohortResult struct {
	Points  []models.CohortDataPoint `json:"points"`
	Quality models.DataQuality       `json:"quality"` // exposure check over all records
	Counted int                      `json:"counted"` // claims that landed in a cohort of the range
}

// MaxMonths is the last months-since-purchase offset tracked for a claim type.
func MaxMonths(claimType models.ClaimType) (int, bool) {
	switch claimType {
	case models.Warranty:
		return 12, true
	case models.Return:
		return 1, true
	default:
		return 0, false
	}
}

// CohortSurvival computes cumulative claim and survival rates per purchase-month cohort.
//
// A claim filed k calendar months after purchase counts toward every offset from k to MaxMonths.
// Points whose represented month (cohort + offset) is after the last complete month at req.Now are
// not emitted. Points come out ordered by cohort, then offset.
func CohortSurvival(records []models.Registration, volumes []models.PurchaseVolume, req models.CohortRequest) (CohortResult, error) {
	start, err := periods.ParseMonth(req.StartMonth)
	if err != nil {
		return CohortResult{}, fmt.Errorf("start month: %w", err)
	}
	end, err := periods.ParseMonth(req.EndMonth)
	if err != nil {
		return CohortResult{}, fmt.Errorf("end month: %w", err)
	}
	maxMonths, ok := MaxMonths(req.ClaimType)
	if !ok {
		return CohortResult{}, fmt.Errorf("unknown claim type %q", req.ClaimType)
	}

	months := periods.MonthsBetweenInclusive(start, end)
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[periods.FormatMonth(m)] = i
	}

	// newClaims[i][k] holds the claims of cohort i first seen at offset k; the running sum over k
	// turns them into cumulative counts.
	newClaims := make([][]int, len(months))
	for i := range newClaims {
		newClaims[i] = make([]int, maxMonths+1)
	}

	valid, quality := exposure.Evaluate(records, req.ClaimType)
	counted := 0
	for _, e := range valid {
		if !eligible(e, req) {
			continue
		}
		i, ok := index[periods.FormatMonth(e.PurchasedAt)]
		if !ok {
			continue
		}
		offset := max(periods.CalendarMonthsBetween(e.PurchasedAt, e.ClaimedAt), 0)
		if offset > maxMonths {
			continue
		}
		newClaims[i][offset]++
		counted++
	}

	volumeFor := volumeLookup(volumes, products.VolumeProducts(req.Product))
	cutoff := periods.LastCompleteMonth(req.Now)

	points := make([]models.CohortDataPoint, 0, len(months)*(maxMonths+1))
	for i, m := range months {
		cohort := periods.FormatMonth(m)
		label := periods.Label(cohort, models.Monthly)
		volume := volumeFor(cohort)
		cumulative := 0
		for k := 0; k <= maxMonths; k++ {
			cumulative += newClaims[i][k]
			if periods.AddMonths(m, k).After(cutoff) {
				break
			}
			claimRate := 0.0
			if volume > 0 {
				claimRate = float64(cumulative) / float64(volume) * 100
			}
			points = append(points, models.CohortDataPoint{
				CohortMonth:         cohort,
				CohortLabel:         label,
				MonthsSincePurchase: k,
				ClaimCount:          cumulative,
				PurchaseVolume:      volume,
				SurvivalRate:        100 - claimRate,
				ClaimRate:           claimRate,
			})
		}
	}

	return CohortResult{Points: points, Quality: quality, Counted: counted}, nil
}

// eligible applies the channel and product rules on top of the exposure check.
func eligible(e exposure.Exposed, req models.CohortRequest) bool {
	if req.ClaimType == models.Warranty {
		channel := strings.TrimSpace(e.Record.FieldData.PurchaseChannel)
		if !slices.Contains(warrantyChannels, channel) {
			return false
		}
	}
	return products.Matches(products.ExtractProductType(e.Record.ProductName), req.Product)
}

// volumeLookup indexes volumes by (yearMonth, product) and sums the requested products per month.
// When several entries share a key the last one wins.
func volumeLookup(volumes []models.PurchaseVolume, productSet []string) func(yearMonth string) int {
	byKey := make(map[models.VolumeKey]int, len(volumes))
	for _, v := range volumes {
		byKey[v.Key()] = v.PurchaseCount
	}
	return func(yearMonth string) int {
		total := 0
		for _, p := range productSet {
			total += byKey[models.VolumeKey{YearMonth: yearMonth, Product: p}]
		}
		return total
	}
}

// CohortRequestFor builds a request over the n most recent complete months at now.
func CohortRequestFor(product string, claimType models.ClaimType, now time.Time, n int) models.CohortRequest {
	start, end := periods.DefaultCohortRange(now, n)
	return models.CohortRequest{
		Product:    product,
		StartMonth: start,
		EndMonth:   end,
		ClaimType:  claimType,
		Now:        now,
	}
}
