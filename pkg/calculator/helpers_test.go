package calculator

import (
	"fmt"
	"time"

	"warranty-analytics/pkg/models"
)

var seq int

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func claim(product, channel string, purchased, claimed time.Time) models.Registration {
	seq++
	return models.Registration{
		ID:           fmt.Sprintf("r%d", seq),
		ProductName:  product,
		PurchaseDate: purchased,
		CreatedAt:    claimed,
		FieldData:    models.FieldData{PurchaseChannel: channel},
	}
}

func repeat(n int, r func() models.Registration) []models.Registration {
	out := make([]models.Registration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r())
	}
	return out
}
