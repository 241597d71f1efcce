// Package products maps free-text product names onto the tracked product taxonomy.
package products

import (
	"regexp"
	"slices"

	"warranty-analytics/pkg/models"
)

type rule struct {
	productType string
	pattern     *regexp.Regexp
}

// Order matters: "Dental Pod Pro" and "Dental Pod Go" also contain "Dental Pod".
var rules = []rule{
	{models.ProductDentalPodGo, regexp.MustCompile(`(?i)dental\s+pod\s+go`)},
	{models.ProductDentalPodPro, regexp.MustCompile(`(?i)dental\s+pod\s+pro`)},
	{models.ProductDentalPod, regexp.MustCompile(`(?i)dental\s+pod`)},
	{models.ProductZimaCases, regexp.MustCompile(`(?i)zima\s+go|zima\s+uv\s+case|zima\s+case\s+air`)},
}

// ExtractProductType classifies a product name. Unmatched names are "Other".
func ExtractProductType(name string) string {
	for _, r := range rules {
		if r.pattern.MatchString(name) {
			return r.productType
		}
	}
	return models.ProductOther
}

// IsTracked reports whether productType is one of the four tracked types.
func IsTracked(productType string) bool {
	return slices.Contains(models.TrackedProducts, productType)
}

// Matches applies a cohort product filter to a classified product type.
// Under AllProducts only tracked types match; "Other" never does.
func Matches(productType, filter string) bool {
	if filter == models.AllProducts {
		return IsTracked(productType)
	}
	return productType == filter
}

// VolumeProducts lists the purchase-volume products a filter sums over.
func VolumeProducts(filter string) []string {
	if filter == models.AllProducts {
		return models.TrackedProducts
	}
	return []string{filter}
}
