package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/district"
	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/internal/resolver"
)

var geocodeReset bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve listing addresses to coordinates",
	Long:  "Runs the tier cascade (override, full address, street plus district, street, district centroid) over every listing without coordinates and records the precision of each fix.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		listings, err := model.LoadListings(cfg.Data.ListingsFile)
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			zap.L().Warn("no listings to geocode", zap.String("file", cfg.Data.ListingsFile))
			return nil
		}

		overrides, err := resolver.LoadOverrides(cfg.Data.Overrides)
		if err != nil {
			return err
		}

		nom := newNominatim()
		boxes, err := district.NewCache(cfg.Data.Districts, nom,
			district.WithQuerySuffix(cfg.City.QuerySuffix))
		if err != nil {
			return err
		}

		if geocodeReset {
			n := resolver.ResetForRegeocode(ctx, listings, boxes)
			zap.L().Info("reset listings for regeocoding", zap.Int("count", n))
		}

		run, err := st.StartRun(ctx, "geocode")
		if err != nil {
			return err
		}

		res := resolver.New(nom, boxes, overrides,
			resolver.WithQuerySuffix(cfg.City.QuerySuffix))
		summary, runErr := res.RunBatch(ctx, listings)
		closeRun(ctx, st, run, summary, runErr)

		// Persist whatever progress was made even on an interrupted run.
		if err := model.SaveListings(cfg.Data.ListingsFile, listings); err != nil {
			return err
		}
		if err := overrides.Save(); err != nil {
			return err
		}
		if err := boxes.Save(); err != nil {
			return err
		}

		if runErr != nil {
			return eris.Wrap(runErr, "geocode")
		}

		zap.L().Info("geocoding complete",
			zap.Int("skipped", summary.Skipped),
			zap.Int("resolved", summary.Resolved),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodeReset, "reset", false,
		"clear stale coordinates (district-level fixes, street-level fixes outside their district box) before geocoding")
	rootCmd.AddCommand(geocodeCmd)
}
