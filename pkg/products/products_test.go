package products

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"warranty-analytics/pkg/models"
)

func TestExtractProductType(t *testing.T) {
	cases := map[string]string{
		"Dental Pod Pro Arctic White":     models.ProductDentalPodPro,
		"Dental Pod (Copy) Rose Pink":     models.ProductDentalPod,
		"dental pod go - travel":          models.ProductDentalPodGo,
		"DENTAL POD  PRO":                 models.ProductDentalPodPro,
		"Dental Pod":                      models.ProductDentalPod,
		"Zima Go Case":                    models.ProductZimaCases,
		"Zima UV Case - Black":            models.ProductZimaCases,
		"zima case air":                   models.ProductZimaCases,
		"Widget X":                        models.ProductOther,
		"":                                models.ProductOther,
		"Dental Floss Pod":                models.ProductOther,
		"Bundle: Dental Pod Go + UV Case": models.ProductDentalPodGo,
	}
	for name, want := range cases {
		assert.Equal(t, want, ExtractProductType(name), "name %q", name)
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches(models.ProductDentalPod, models.AllProducts))
	assert.True(t, Matches(models.ProductZimaCases, models.AllProducts))
	assert.False(t, Matches(models.ProductOther, models.AllProducts))

	assert.True(t, Matches(models.ProductDentalPodPro, models.ProductDentalPodPro))
	assert.False(t, Matches(models.ProductDentalPod, models.ProductDentalPodPro))
}

func TestVolumeProducts(t *testing.T) {
	assert.Len(t, VolumeProducts(models.AllProducts), 4)
	assert.Equal(t, []string{models.ProductDentalPodGo}, VolumeProducts(models.ProductDentalPodGo))
}
