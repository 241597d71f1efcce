// Package filters extracts facet values from registrations and applies conjunctive facet selections.
package filters

import (
	"slices"
	"sort"

	"warranty-analytics/pkg/models"
)

// ExtractValues collects the distinct non-empty facet values of records, each list sorted.
func ExtractValues(records []models.Registration) models.FilterValues {
	var (
		names    = map[string]struct{}{}
		skus     = map[string]struct{}{}
		serials  = map[string]struct{}{}
		reasons  = map[string]struct{}{}
		subs     = map[string]struct{}{}
		channels = map[string]struct{}{}
	)
	for _, r := range records {
		add(names, r.ProductName)
		add(skus, r.ProductSKU)
		for _, sn := range r.SerialNumbers {
			add(serials, sn)
		}
		add(reasons, r.FieldData.Reason)
		add(subs, r.FieldData.SubReason)
		add(channels, r.FieldData.PurchaseChannel)
	}
	return models.FilterValues{
		ProductNames:     sorted(names),
		SKUs:             sorted(skus),
		SerialNumbers:    sorted(serials),
		Reasons:          sorted(reasons),
		SubReasons:       sorted(subs),
		PurchaseChannels: sorted(channels),
	}
}

// Apply keeps the records matching every non-empty facet of f, in input order.
func Apply(records []models.Registration, f models.Filters) []models.Registration {
	out := make([]models.Registration, 0, len(records))
	for _, r := range records {
		if Match(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether one record passes f.
func Match(r models.Registration, f models.Filters) bool {
	if !facet(f.ProductNames, r.ProductName) ||
		!facet(f.SKUs, r.ProductSKU) ||
		!facet(f.Reasons, r.FieldData.Reason) ||
		!facet(f.SubReasons, r.FieldData.SubReason) ||
		!facet(f.PurchaseChannels, r.FieldData.PurchaseChannel) {
		return false
	}
	if len(f.SerialNumbers) == 0 {
		return true
	}
	for _, sn := range r.SerialNumbers {
		if slices.Contains(f.SerialNumbers, sn) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether f selects nothing.
func IsEmpty(f models.Filters) bool {
	return len(f.ProductNames) == 0 && len(f.SKUs) == 0 && len(f.SerialNumbers) == 0 &&
		len(f.Reasons) == 0 && len(f.SubReasons) == 0 && len(f.PurchaseChannels) == 0
}

func facet(selected []string, value string) bool {
	return len(selected) == 0 || slices.Contains(selected, value)
}

func add(set map[string]struct{}, value string) {
	if value != "" {
		set[value] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
