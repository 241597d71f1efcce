package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"warranty-analytics/pkg/database"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/report"
	"warranty-analytics/pkg/source"
)

var volumeTable string

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "Manage monthly purchase volumes",
}

var volumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored purchase volumes",
	Args:  cobra.NoArgs,
	RunE:  runVolumesList,
}

var volumesSetCmd = &cobra.Command{
	Use:   "set [YYYY-MM] [product] [count]",
	Short: "Create or replace the purchase volume of one product in one month",
	Example: `  warranty-analytics volumes set 2024-03 "Dental Pod Go" 1250`,
	Args:    cobra.ExactArgs(3),
	RunE:    runVolumesSet,
}

var volumesDeleteCmd = &cobra.Command{
	Use:   "delete [YYYY-MM] [product]",
	Short: "Remove the purchase volume of one product in one month",
	Args:  cobra.ExactArgs(2),
	RunE:  runVolumesDelete,
}

var volumesImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import purchase volumes from a CSV sheet",
	Long: `Reads a CSV sheet with a header row naming the month, product and count columns
(e.g. "year_month,product,purchase_count") and upserts every row in one transaction.
The whole sheet is rejected if any row fails validation.`,
	Args: cobra.ExactArgs(1),
	RunE: runVolumesImport,
}

// withVolumeStore opens the database, ensures the table and hands the store to fn.
func withVolumeStore(cmd *cobra.Command, fn func(*database.VolumeStore) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := database.NewVolumeStore(db, volumeTable, logger)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(store)
}

func runVolumesList(cmd *cobra.Command, args []string) error {
	return withVolumeStore(cmd, func(store *database.VolumeStore) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		volumes, err := store.ListVolumes(ctx)
		if err != nil {
			return err
		}
		if outputPath != "" {
			return report.WriteJSON(outputPath, volumes)
		}
		out := cmd.OutOrStdout()
		for _, v := range volumes {
			fmt.Fprintf(out, "%s  %-36s %8d\n", v.YearMonth, v.Product, v.PurchaseCount)
		}
		return nil
	})
}

func runVolumesSet(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid count %q", args[2])
	}
	v := models.PurchaseVolume{YearMonth: args[0], Product: args[1], PurchaseCount: count}
	if err := v.Validate(); err != nil {
		return err
	}
	return withVolumeStore(cmd, func(store *database.VolumeStore) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return store.UpsertVolume(ctx, v)
	})
}

func runVolumesDelete(cmd *cobra.Command, args []string) error {
	return withVolumeStore(cmd, func(store *database.VolumeStore) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return store.DeleteVolume(ctx, args[0], args[1])
	})
}

func runVolumesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	volumes, err := source.LoadVolumesCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return withVolumeStore(cmd, func(store *database.VolumeStore) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return store.ImportVolumes(ctx, volumes)
	})
}

func init() {
	volumesListCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write JSON to this file (- for stdout)")

	volumesCmd.AddCommand(volumesListCmd)
	volumesCmd.AddCommand(volumesSetCmd)
	volumesCmd.AddCommand(volumesDeleteCmd)
	volumesCmd.AddCommand(volumesImportCmd)
}
