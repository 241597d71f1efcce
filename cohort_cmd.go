package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/database"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/products"
	"warranty-analytics/pkg/report"
	"warranty-analytics/pkg/source"
)

var (
	cohortProduct string
	cohortStart   string
	cohortEnd     string
	cohortMonths  int
	volumesCSV    string
	cohortFormat  string
	storeRun      bool
)

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Cumulative claim and survival rates per purchase-month cohort",
	Long: `Groups claims by purchase month and reports, for each month since purchase, the cumulative
share of units claimed against that month's purchase volume.

Without --start/--end the range covers the --months most recent complete months.
Cohorts without purchase volume are shown as N/A.

Example:
  warranty-analytics cohort --product "Dental Pod" --start 2024-01 --end 2024-06
  warranty-analytics cohort --claim-type return --volumes volumes.csv --format csv`,
	RunE: runCohort,
}

func runCohort(cmd *cobra.Command, args []string) error {
	now, err := referenceTime()
	if err != nil {
		return err
	}
	ct := models.ClaimType(claimType)
	if _, ok := calculator.MaxMonths(ct); !ok {
		return fmt.Errorf("unknown claim type %q", claimType)
	}
	if cohortProduct != models.AllProducts && !products.IsTracked(cohortProduct) {
		return fmt.Errorf("unknown product %q", cohortProduct)
	}

	req := calculator.CohortRequestFor(cohortProduct, ct, now, cohortMonths)
	if cohortStart != "" {
		req.StartMonth = cohortStart
	}
	if cohortEnd != "" {
		req.EndMonth = cohortEnd
	}

	regs, err := loadRegistrations()
	if err != nil {
		return err
	}

	var db *database.DB
	if volumesCSV == "" || storeRun {
		if db, err = openDB(); err != nil {
			return err
		}
		defer db.Close()
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	volumes, err := loadVolumes(ctx, db)
	if err != nil {
		return err
	}

	res, err := calculator.CohortSurvival(regs, volumes, req)
	if err != nil {
		return err
	}
	logQuality("cohort survival computed", res.Quality)
	logger.Info("cohort range",
		zap.String("product", req.Product),
		zap.String("start", req.StartMonth),
		zap.String("end", req.EndMonth),
		zap.Int("counted", res.Counted),
		zap.Int("points", len(res.Points)))

	var runID string
	if storeRun {
		runs := database.NewRunStore(db, logger)
		if err := runs.EnsureSchema(ctx); err != nil {
			return err
		}
		if runID, err = runs.SaveCohortRun(ctx, req, res); err != nil {
			return err
		}
	}
	if publishOut {
		p, err := newProducer()
		if err != nil {
			return err
		}
		defer p.Close()
		if _, err := p.PublishCohort(ctx, runID, req, res); err != nil {
			return fmt.Errorf("publish cohort: %w", err)
		}
	}

	if outputPath != "" {
		return report.WriteJSON(outputPath, res)
	}
	switch cohortFormat {
	case "csv":
		return report.WriteCohortCSV(cmd.OutOrStdout(), res.Points)
	case "table":
		return report.RenderHeatmap(cmd.OutOrStdout(), calculator.BuildHeatmap(res.Points))
	default:
		return fmt.Errorf("unknown format %q", cohortFormat)
	}
}

// loadVolumes reads --volumes when set, otherwise the --table volume table, creating it when missing.
func loadVolumes(ctx context.Context, db *database.DB) ([]models.PurchaseVolume, error) {
	if volumesCSV != "" {
		f, err := os.Open(volumesCSV)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return source.LoadVolumesCSV(f)
	}

	store, err := database.NewVolumeStore(db, volumeTable, logger)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	volumes, err := store.ListVolumes(ctx)
	if err != nil {
		return nil, err
	}
	if len(volumes) == 0 {
		logger.Warn("no purchase volumes stored, every cohort will show N/A",
			zap.String("table", volumeTable))
	}
	return volumes, nil
}

func init() {
	cohortCmd.Flags().StringVar(&cohortProduct, "product", models.AllProducts, "Product type, or \"All Products\"")
	cohortCmd.Flags().StringVar(&claimType, "claim-type", string(models.Warranty), "warranty or return")
	cohortCmd.Flags().StringVar(&cohortStart, "start", "", "First cohort month YYYY-MM")
	cohortCmd.Flags().StringVar(&cohortEnd, "end", "", "Last cohort month YYYY-MM")
	cohortCmd.Flags().IntVar(&cohortMonths, "months", 12, "Cohort months in the default range")
	cohortCmd.Flags().StringVar(&volumesCSV, "volumes", "", "Purchase volumes CSV (default: database)")
	cohortCmd.Flags().StringVar(&cohortFormat, "format", "table", "table or csv")
	cohortCmd.Flags().BoolVar(&storeRun, "store", false, "Save the run to the database")
	cohortCmd.Flags().BoolVar(&publishOut, "publish", false, "Publish the run to Kafka")
}
