package models

import (
	"time"
)

/*
LOAD → raw records handed to the engine by the ingestion side (vendor API, cache, volume store).
*/

// Registration is one warranty or return claim as fetched from the registrations API.
type Registration struct {
	ID                    string    `json:"id"`
	ProductName           string    `json:"productName,omitempty"`
	ProductSKU            string    `json:"productSku,omitempty"`
	SerialNumbers         []string  `json:"serialNumbers,omitempty"`
	PurchaseDate          time.Time `json:"purchaseDate,omitzero"`
	ShopifyOrderCreatedAt time.Time `json:"shopifyOrderCreatedAt,omitzero"`
	CreatedAt             time.Time `json:"createdAt,omitzero"` // claim filing time
	FieldData             FieldData `json:"fieldData"`
}

// PurchasedAt returns the purchase timestamp, preferring purchaseDate over the Shopify order time.
func (r Registration) PurchasedAt() (time.Time, bool) {
	if !r.PurchaseDate.IsZero() {
		return r.PurchaseDate, true
	}
	if !r.ShopifyOrderCreatedAt.IsZero() {
		return r.ShopifyOrderCreatedAt, true
	}
	return time.Time{}, false
}

// ClaimedAt returns the claim filing timestamp.
func (r Registration) ClaimedAt() (time.Time, bool) {
	return r.CreatedAt, !r.CreatedAt.IsZero()
}

// Form field slugs read from the registration form.
const (
	SlugReason          = "reason-for-claim"
	SlugSubReason       = "reason-for-claim57"
	SlugPurchaseChannel = "where-did-you-purchase-this-product-from-"
)

// FieldData holds the known form fields of a registration. Other slugs are dropped on decode.
type FieldData struct {
	Reason          string
	SubReason       string
	PurchaseChannel string
}

// PurchaseVolume is the number of units sold for one product in one calendar month.
type PurchaseVolume struct {
	YearMonth     string `json:"yearMonth" validate:"required,datetime=2006-01"`
	Product       string `json:"product" validate:"required,tracked_product"`
	PurchaseCount int    `json:"purchaseCount" validate:"gte=0"`
}

// VolumeKey is the composite lookup key of a PurchaseVolume.
type VolumeKey struct {
	YearMonth string
	Product   string
}

// Key returns the (yearMonth, product) key.
func (v PurchaseVolume) Key() VolumeKey {
	return VolumeKey{YearMonth: v.YearMonth, Product: v.Product}
}

/*
COMPUTE → chart-ready structures, rebuilt on every call.
*/

// ChartDataPoint is one period of the claims-percentage-of-exposure series.
type ChartDataPoint struct {
	Period            string  `json:"period"`
	PeriodLabel       string  `json:"periodLabel"`
	ClaimCount        int     `json:"claimCount"`
	TotalExposureDays int     `json:"totalExposureDays"`
	ClaimsPercentage  float64 `json:"claimsPercentage"`
}

// StackedChartDataPoint is one period of a stacked category series.
type StackedChartDataPoint struct {
	Period         string
	PeriodLabel    string
	Total          int
	Counts         map[string]int
	OtherBreakdown map[string]int // categories merged into "Other" for this period
}

// CohortDataPoint is the cumulative state of one purchase-month cohort at a months-since-purchase offset.
type CohortDataPoint struct {
	CohortMonth         string  `json:"cohortMonth"`
	CohortLabel         string  `json:"cohortLabel"`
	MonthsSincePurchase int     `json:"monthsSincePurchase"`
	ClaimCount          int     `json:"claimCount"` // cumulative
	PurchaseVolume      int     `json:"purchaseVolume"`
	SurvivalRate        float64 `json:"survivalRate"`
	ClaimRate           float64 `json:"claimRate"`
}

// DataQuality reports how many records were looked at and how many were left out.
type DataQuality struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Excluded int `json:"excluded"`
}

// FilterValues lists the distinct facet values present in a record set, each sorted.
type FilterValues struct {
	ProductNames     []string `json:"productNames"`
	SKUs             []string `json:"skus"`
	SerialNumbers    []string `json:"serialNumbers"`
	Reasons          []string `json:"reasons"`
	SubReasons       []string `json:"subReasons"`
	PurchaseChannels []string `json:"purchaseChannels"`
}

// Filters is a conjunctive selection; an empty facet imposes no constraint.
type Filters struct {
	ProductNames     []string `json:"productNames,omitempty"`
	SKUs             []string `json:"skus,omitempty"`
	SerialNumbers    []string `json:"serialNumbers,omitempty"`
	Reasons          []string `json:"reasons,omitempty"`
	SubReasons       []string `json:"subReasons,omitempty"`
	PurchaseChannels []string `json:"purchaseChannels,omitempty"`
}

/*
CONFIG → parameters of a computation
*/

// Granularity selects the period bucket size.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ClaimType selects the exposure window and cohort horizon.
type ClaimType string

const (
	Warranty ClaimType = "warranty"
	Return   ClaimType = "return"
)

// GroupBy selects the category dimension of a stacked series.
type GroupBy string

const (
	GroupNone            GroupBy = "none"
	GroupProductName     GroupBy = "productName"
	GroupSKU             GroupBy = "sku"
	GroupReason          GroupBy = "reason"
	GroupPurchaseChannel GroupBy = "purchaseChannel"
	GroupSerialNumber    GroupBy = "serialNumber"
)

// Product taxonomy.
const (
	ProductDentalPodGo  = "Dental Pod Go"
	ProductDentalPodPro = "Dental Pod Pro"
	ProductDentalPod    = "Dental Pod"
	ProductZimaCases    = "Zima Go/Zima UV Case/Zima Case Air"
	ProductOther        = "Other"

	AllProducts = "All Products"
)

// TrackedProducts are the product types with purchase volumes and cohort tracking.
var TrackedProducts = []string{
	ProductDentalPodGo,
	ProductDentalPodPro,
	ProductDentalPod,
	ProductZimaCases,
}

// CohortRequest holds the parameters of a cohort survival computation.
type CohortRequest struct {
	Product    string    // AllProducts or one tracked product
	StartMonth string    // "YYYY-MM", inclusive
	EndMonth   string    // "YYYY-MM", inclusive
	ClaimType  ClaimType // warranty or return
	Now        time.Time // reference for the last complete month
}
