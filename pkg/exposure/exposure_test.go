package exposure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-analytics/pkg/models"
)

func TestDays(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Days(base, base))
	assert.Equal(t, 1, Days(base, base.Add(time.Minute)), "partial day rounds up")
	assert.Equal(t, 1, Days(base, base.Add(24*time.Hour)))
	assert.Equal(t, 2, Days(base, base.Add(25*time.Hour)))
	assert.Equal(t, 0, Days(base, base.Add(-72*time.Hour)), "claim before purchase clamps to zero")
	assert.Equal(t, 366, Days(base, base.AddDate(1, 0, 0)), "2024 is a leap year")
}

func TestIsValid_Boundaries(t *testing.T) {
	assert.True(t, IsValid(0, models.Return))
	assert.True(t, IsValid(31, models.Return))
	assert.False(t, IsValid(32, models.Return))

	assert.True(t, IsValid(0, models.Warranty))
	assert.True(t, IsValid(365, models.Warranty))
	assert.False(t, IsValid(366, models.Warranty))

	assert.False(t, IsValid(-1, models.Warranty))
	assert.False(t, IsValid(5, models.ClaimType("exchange")))
}

func TestEvaluate_CountsExclusions(t *testing.T) {
	purchase := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	records := []models.Registration{
		{ID: "ok", PurchaseDate: purchase, CreatedAt: purchase.AddDate(0, 0, 10)},
		{ID: "shopify", ShopifyOrderCreatedAt: purchase, CreatedAt: purchase.AddDate(0, 0, 31)},
		{ID: "no-purchase", CreatedAt: purchase},
		{ID: "no-claim", PurchaseDate: purchase},
		{ID: "too-late", PurchaseDate: purchase, CreatedAt: purchase.AddDate(0, 0, 40)},
	}

	valid, quality := Evaluate(records, models.Return)
	require.Len(t, valid, 2)
	assert.Equal(t, "ok", valid[0].Record.ID)
	assert.Equal(t, 10, valid[0].Days)
	assert.Equal(t, "shopify", valid[1].Record.ID)
	assert.Equal(t, models.DataQuality{Total: 5, Valid: 2, Excluded: 3}, quality)

	valid, quality = Evaluate(records, models.Warranty)
	assert.Len(t, valid, 3)
	assert.Equal(t, 2, quality.Excluded)
}
