package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestamp layouts seen in registrations API payloads and exports
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts numeric or string ids and lenient timestamps.
// Unparseable timestamps decode to the zero time so the record is excluded downstream instead of failing the batch.
func (r *Registration) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                    json.RawMessage `json:"id"`
		ProductName           string          `json:"productName"`
		ProductSKU            string          `json:"productSku"`
		SerialNumbers         []string        `json:"serialNumbers"`
		PurchaseDate          json.RawMessage `json:"purchaseDate"`
		ShopifyOrderCreatedAt json.RawMessage `json:"shopifyOrderCreatedAt"`
		CreatedAt             json.RawMessage `json:"createdAt"`
		FieldData             FieldData       `json:"fieldData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return fmt.Errorf("registration id: %w", err)
	}
	*r = Registration{
		ID:                    id,
		ProductName:           strings.TrimSpace(raw.ProductName),
		ProductSKU:            strings.TrimSpace(raw.ProductSKU),
		SerialNumbers:         raw.SerialNumbers,
		PurchaseDate:          decodeTime(raw.PurchaseDate),
		ShopifyOrderCreatedAt: decodeTime(raw.ShopifyOrderCreatedAt),
		CreatedAt:             decodeTime(raw.CreatedAt),
		FieldData:             raw.FieldData,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func decodeTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		// epoch milliseconds
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil || ms <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	t, _ := ParseTimestamp(s)
	return t
}

// ParseTimestamp parses the timestamp formats accepted on registrations.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %s", value)
}

// UnmarshalJSON reads either a slug → value object or a list of {slug, value} entries.
func (f *FieldData) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FieldData{}
		return nil
	}
	values := map[string]any{}
	if data[0] == '[' {
		var entries []struct {
			Slug  string `json:"slug"`
			Value any    `json:"value"`
		}
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("fieldData: %w", err)
		}
		for _, e := range entries {
			values[e.Slug] = e.Value
		}
	} else if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("fieldData: %w", err)
	}
	*f = FieldData{
		Reason:          stringify(values[SlugReason]),
		SubReason:       stringify(values[SlugSubReason]),
		PurchaseChannel: stringify(values[SlugPurchaseChannel]),
	}
	return nil
}

// MarshalJSON writes the slug → value object form, omitting empty fields.
func (f FieldData) MarshalJSON() ([]byte, error) {
	out := map[string]string{}
	if f.Reason != "" {
		out[SlugReason] = f.Reason
	}
	if f.SubReason != "" {
		out[SlugSubReason] = f.SubReason
	}
	if f.PurchaseChannel != "" {
		out[SlugPurchaseChannel] = f.PurchaseChannel
	}
	return json.Marshal(out)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// MarshalJSON flattens per-category counts into the point object, the shape stacked chart renderers read.
func (p StackedChartDataPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Counts)+4)
	for category, count := range p.Counts {
		out[category] = count
	}
	out["period"] = p.Period
	out["periodLabel"] = p.PeriodLabel
	out["total"] = p.Total
	if len(p.OtherBreakdown) > 0 {
		out["otherBreakdown"] = p.OtherBreakdown
	}
	return json.Marshal(out)
}
