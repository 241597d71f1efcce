package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Width(12)
	cellStyle   = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// survivalStyle colours a survival percentage from green (few claims) to red.
func survivalStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 95:
		return cellStyle.Foreground(lipgloss.Color("42"))
	case rate >= 85:
		return cellStyle.Foreground(lipgloss.Color("226"))
	case rate >= 70:
		return cellStyle.Foreground(lipgloss.Color("214"))
	default:
		return cellStyle.Foreground(lipgloss.Color("196")).Bold(true)
	}
}

// RenderHeatmap prints cohorts as rows and months since purchase as columns. Cohorts without
// purchase volume show N/A instead of a rate.
func RenderHeatmap(w io.Writer, h calculator.Heatmap) error {
	if len(h.Rows) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no cohorts in range"))
		return err
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(headerStyle.Render("Cohort")))
	b.WriteString(cellStyle.Render(headerStyle.Render("Units")))
	for _, k := range h.Offsets {
		b.WriteString(cellStyle.Render(headerStyle.Render(fmt.Sprintf("M%d", k))))
	}
	b.WriteString("\n")

	for _, row := range h.Rows {
		b.WriteString(labelStyle.Render(row.CohortLabel))
		b.WriteString(cellStyle.Render(fmt.Sprintf("%d", row.PurchaseVolume)))
		for _, c := range row.Cells {
			if c.NoData {
				b.WriteString(cellStyle.Inherit(mutedStyle).Render("N/A"))
				continue
			}
			b.WriteString(survivalStyle(c.SurvivalRate).Render(fmt.Sprintf("%.1f%%", c.SurvivalRate)))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderRates prints the claims-percentage series one period per line.
func RenderRates(w io.Writer, points []models.ChartDataPoint) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no valid claims"))
		return err
	}

	wide := cellStyle.Width(12)
	var b strings.Builder
	b.WriteString(labelStyle.Render(headerStyle.Render("Period")))
	b.WriteString(wide.Render(headerStyle.Render("Claims")))
	b.WriteString(wide.Render(headerStyle.Render("Exp. days")))
	b.WriteString(wide.Render(headerStyle.Render("Rate")))
	b.WriteString("\n")
	for _, p := range points {
		b.WriteString(labelStyle.Render(p.PeriodLabel))
		b.WriteString(wide.Render(fmt.Sprintf("%d", p.ClaimCount)))
		b.WriteString(wide.Render(fmt.Sprintf("%d", p.TotalExposureDays)))
		b.WriteString(wide.Render(fmt.Sprintf("%.3f%%", p.ClaimsPercentage)))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderStacked prints each period's total followed by its non-zero categories, largest first.
// Categories folded into Other are listed beneath it.
func RenderStacked(w io.Writer, res calculator.ClaimsOverTimeResult) error {
	if len(res.Points) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no valid claims"))
		return err
	}

	var b strings.Builder
	for _, p := range res.Points {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s  total %d", p.PeriodLabel, p.Total)))
		b.WriteString("\n")
		for _, cat := range byCount(p.Counts) {
			fmt.Fprintf(&b, "  %-40s %6d\n", cat, p.Counts[cat])
			if cat == calculator.OtherCategory {
				for _, sub := range byCount(p.OtherBreakdown) {
					b.WriteString(mutedStyle.Render(fmt.Sprintf("    %-38s %6d", sub, p.OtherBreakdown[sub])))
					b.WriteString("\n")
				}
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// byCount returns the keys with a non-zero count, largest count first, ties alphabetical.
func byCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// RenderFacets lists the distinct values available for each filter facet.
func RenderFacets(w io.Writer, v models.FilterValues) error {
	facets := []struct {
		name   string
		values []string
	}{
		{"Products", v.ProductNames},
		{"SKUs", v.SKUs},
		{"Serial numbers", v.SerialNumbers},
		{"Reasons", v.Reasons},
		{"Sub-reasons", v.SubReasons},
		{"Purchase channels", v.PurchaseChannels},
	}

	var b strings.Builder
	for _, f := range facets {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", f.name, len(f.values))))
		b.WriteString("\n")
		for _, val := range f.values {
			b.WriteString("  " + val + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
