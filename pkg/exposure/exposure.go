// Package exposure measures the time between purchase and claim and decides which records count.
package exposure

import (
	"math"
	"time"

	"warranty-analytics/pkg/models"
)

// Window is the inclusive range of exposure days a claim type accepts.
type Window struct {
	MinDays int
	MaxDays int
}

var windows = map[models.ClaimType]Window{
	models.Warranty: {MinDays: 0, MaxDays: 365},
	models.Return:   {MinDays: 0, MaxDays: 31},
}

// WindowFor returns the exposure window of a claim type.
func WindowFor(claimType models.ClaimType) (Window, bool) {
	w, ok := windows[claimType]
	return w, ok
}

// Days is the number of started days between purchase and claim, never negative.
func Days(purchase, claim time.Time) int {
	days := math.Ceil(claim.Sub(purchase).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// IsValid reports whether days falls inside the window of claimType.
func IsValid(days int, claimType models.ClaimType) bool {
	w, ok := windows[claimType]
	if !ok {
		return false
	}
	return days >= w.MinDays && days <= w.MaxDays
}

// Exposed is a record that passed the exposure check, with its resolved timestamps.
type Exposed struct {
	Record      models.Registration
	PurchasedAt time.Time
	ClaimedAt   time.Time
	Days        int
}

// Evaluate keeps the records with both timestamps and a valid exposure for claimType.
// The returned quality counts everything else as excluded.
func Evaluate(records []models.Registration, claimType models.ClaimType) ([]Exposed, models.DataQuality) {
	out := make([]Exposed, 0, len(records))
	for _, r := range records {
		if e, ok := Check(r, claimType); ok {
			out = append(out, e)
		}
	}
	return out, models.DataQuality{
		Total:    len(records),
		Valid:    len(out),
		Excluded: len(records) - len(out),
	}
}

// Check resolves a single record. A missing timestamp never defaults to zero days.
func Check(r models.Registration, claimType models.ClaimType) (Exposed, bool) {
	purchased, ok := r.PurchasedAt()
	if !ok {
		return Exposed{}, false
	}
	claimed, ok := r.ClaimedAt()
	if !ok {
		return Exposed{}, false
	}
	days := Days(purchased, claimed)
	if !IsValid(days, claimType) {
		return Exposed{}, false
	}
	return Exposed{Record: r, PurchasedAt: purchased, ClaimedAt: claimed, Days: days}, true
}
