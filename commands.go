package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warranty-analytics/pkg/cache"
	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/filters"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/publish"
	"warranty-analytics/pkg/report"
	"warranty-analytics/pkg/source"
)

// Flags shared by the claims commands.
var (
	claimType   string
	granularity string
	groupBy     string
	outputPath  string
	publishOut  bool
	facetFilter models.Filters
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download all registrations from the API into the local cache",
	RunE:  runFetch,
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "List the distinct filter values present in the registrations",
	RunE:  runFacets,
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Claims as a percentage of exposure days, per period",
	Long: `Buckets valid claims by filing period and relates each bucket's claim count to the
summed exposure days of its claims.

Example:
  warranty-analytics rate --granularity weekly --claim-type return --reason Cracked`,
	RunE: runRate,
}

var overTimeCmd = &cobra.Command{
	Use:   "over-time",
	Short: "Claim counts per period, stacked by category",
	Long: `Counts valid claims per period split by the --group-by facet. The 15 largest categories
keep their own series; the rest are merged into "Other".`,
	RunE: runOverTime,
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	client := source.NewClient(source.Options{
		BaseURL:    cfg.API.BaseURL,
		Token:      cfg.API.Token,
		PageSize:   cfg.API.PageSize,
		MaxRetries: cfg.API.MaxRetries,
		Timeout:    cfg.API.Timeout,
		Progress:   os.Stderr,
	}, logger)

	fetchedAt := time.Now().UTC()
	regs, err := client.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch registrations: %w", err)
	}

	store, err := cache.Open(cacheConfig(), logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(regs, fetchedAt)
}

func runFacets(cmd *cobra.Command, args []string) error {
	regs, err := loadRegistrations()
	if err != nil {
		return err
	}
	values := filters.ExtractValues(regs)
	if outputPath != "" {
		return report.WriteJSON(outputPath, values)
	}
	return report.RenderFacets(cmd.OutOrStdout(), values)
}

// filteredRegistrations loads registrations and applies the facet flags.
func filteredRegistrations() ([]models.Registration, error) {
	regs, err := loadRegistrations()
	if err != nil {
		return nil, err
	}
	if filters.IsEmpty(facetFilter) {
		return regs, nil
	}
	out := filters.Apply(regs, facetFilter)
	logger.Debug("filters applied", zap.Int("before", len(regs)), zap.Int("after", len(out)))
	return out, nil
}

func parseClaimParams() (models.Granularity, models.ClaimType, error) {
	g := models.Granularity(granularity)
	switch g {
	case models.Daily, models.Weekly, models.Monthly, models.Yearly:
	default:
		return "", "", fmt.Errorf("unknown granularity %q", granularity)
	}
	ct := models.ClaimType(claimType)
	if _, ok := calculator.MaxMonths(ct); !ok {
		return "", "", fmt.Errorf("unknown claim type %q", claimType)
	}
	return g, ct, nil
}

func runRate(cmd *cobra.Command, args []string) error {
	g, ct, err := parseClaimParams()
	if err != nil {
		return err
	}
	regs, err := filteredRegistrations()
	if err != nil {
		return err
	}

	res := calculator.ClaimsPercentageByPeriod(regs, g, ct)
	logQuality("claims rate computed", res.Quality)

	if err := maybePublish(cmd, publish.KindRates, res); err != nil {
		return err
	}
	if outputPath != "" {
		return report.WriteJSON(outputPath, res)
	}
	return report.RenderRates(cmd.OutOrStdout(), res.Points)
}

func runOverTime(cmd *cobra.Command, args []string) error {
	g, ct, err := parseClaimParams()
	if err != nil {
		return err
	}
	gb := models.GroupBy(groupBy)
	switch gb {
	case models.GroupNone, models.GroupProductName, models.GroupSKU, models.GroupReason,
		models.GroupPurchaseChannel, models.GroupSerialNumber:
	default:
		return fmt.Errorf("unknown group-by %q", groupBy)
	}
	regs, err := filteredRegistrations()
	if err != nil {
		return err
	}

	res := calculator.ClaimsOverTime(regs, g, gb, ct)
	logQuality("claims over time computed", res.Quality)

	if err := maybePublish(cmd, publish.KindOverTime, res); err != nil {
		return err
	}
	if outputPath != "" {
		return report.WriteJSON(outputPath, res)
	}
	return report.RenderStacked(cmd.OutOrStdout(), res)
}

// newProducer builds a Kafka producer from the configuration.
func newProducer() (*publish.Producer, error) {
	return publish.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
}

func maybePublish(cmd *cobra.Command, kind string, payload any) error {
	if !publishOut {
		return nil
	}
	p, err := newProducer()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()
	_, err = p.PublishClaims(ctx, kind, payload)
	return err
}

func addClaimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&claimType, "claim-type", string(models.Warranty), "warranty or return")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", string(models.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().BoolVar(&publishOut, "publish", false, "Publish the result to Kafka")
	cmd.Flags().StringSliceVar(&facetFilter.ProductNames, "product-name", nil, "Keep only these product names")
	cmd.Flags().StringSliceVar(&facetFilter.SKUs, "sku", nil, "Keep only these SKUs")
	cmd.Flags().StringSliceVar(&facetFilter.SerialNumbers, "serial", nil, "Keep only these serial numbers")
	cmd.Flags().StringSliceVar(&facetFilter.Reasons, "reason", nil, "Keep only these claim reasons")
	cmd.Flags().StringSliceVar(&facetFilter.SubReasons, "sub-reason", nil, "Keep only these sub-reasons")
	cmd.Flags().StringSliceVar(&facetFilter.PurchaseChannels, "channel", nil, "Keep only these purchase channels")
}

func init() {
	for _, c := range []*cobra.Command{facetsCmd, rateCmd, overTimeCmd, cohortCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "Write JSON to this file instead of rendering (- for stdout)")
	}
	addClaimFlags(rateCmd)
	addClaimFlags(overTimeCmd)
	overTimeCmd.Flags().StringVar(&groupBy, "group-by", string(models.GroupReason),
		"none, productName, sku, reason, purchaseChannel or serialNumber")
}
