package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/greens"
)

var greensCmd = &cobra.Command{
	Use:   "greens",
	Short: "Export the city's green areas as GeoJSON",
	Long:  "Fetches parks, gardens, and dog parks inside the city box from Overpass and writes them to the output directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.StartRun(ctx, "greens")
		if err != nil {
			return err
		}

		fc, runErr := greens.Fetch(ctx, newOverpass(st), cityBBox())
		var summary map[string]any
		if fc != nil {
			summary = map[string]any{"features": len(fc.Features)}
		}
		closeRun(ctx, st, run, summary, runErr)
		if runErr != nil {
			return eris.Wrap(runErr, "greens")
		}

		path, err := writeGeoJSON("greens.geojson", fc)
		if err != nil {
			return err
		}

		zap.L().Info("greens written",
			zap.String("path", path),
			zap.Int("features", len(fc.Features)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(greensCmd)
}
