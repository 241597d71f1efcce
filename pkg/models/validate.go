package models

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// volumeValidate checks purchase volume entries before they reach the store or the engine.
var volumeValidate *validator.Validate

func init() {
	volumeValidate = validator.New()
	if err := volumeValidate.RegisterValidation("tracked_product", validateTrackedProduct); err != nil {
		panic(fmt.Sprintf("register tracked_product validator: %v", err))
	}
}

func validateTrackedProduct(fl validator.FieldLevel) bool {
	return slices.Contains(TrackedProducts, fl.Field().String())
}

// Validate rejects malformed months, untracked products and negative counts.
func (v PurchaseVolume) Validate() error {
	if err := volumeValidate.Struct(v); err != nil {
		return fmt.Errorf("purchase volume %s/%s: %w", v.YearMonth, v.Product, err)
	}
	return nil
}
