package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/distance"
	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/pkg/osrm"
)

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "Compute listing distances to the reference point",
	Long:  "Writes a straight-line distance for every geocoded listing plus best-effort OSRM driving and walking route estimates.",
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
			zap.L().Warn("no listings to enrich", zap.String("file", cfg.Data.ListingsFile))
			return nil
		}

		ref := referencePoint(ctx, newNominatim())
		router := osrm.NewClient(
			osrm.WithBaseURL(cfg.OSRM.BaseURL),
			osrm.WithRateInterval(secs(cfg.OSRM.DelaySecs)),
		)

		run, err := st.StartRun(ctx, "distances")
		if err != nil {
			return err
		}

		summary, runErr := distance.Enrich(ctx, listings, ref, router)
		closeRun(ctx, st, run, summary, runErr)

		if err := model.SaveListings(cfg.Data.ListingsFile, listings); err != nil {
			return err
		}
		if runErr != nil {
			return eris.Wrap(runErr, "distances")
		}

		zap.L().Info("distances complete",
			zap.Int("enriched", summary.Enriched),
			zap.Int("unresolved", summary.Unresolved),
			zap.Int("route_failures", summary.RouteFailures),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distancesCmd)
}
