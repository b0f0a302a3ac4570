package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/isochrone"
	"github.com/ararat-labs/housing-cli/pkg/ors"
)

var isochronesCmd = &cobra.Command{
	Use:   "isochrones",
	Short: "Generate walking-time polygons around the reference point",
	Long:  "Produces one GeoJSON polygon per configured minute budget. Uses OpenRouteService when an API key is set, otherwise runs a shortest-path search over the OSM walk network.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := []isochrone.Option{isochrone.WithWalkSpeed(cfg.Isochrone.WalkSpeedMps)}
		if cfg.ORS.Key != "" {
			opts = append(opts, isochrone.WithService(ors.NewClient(cfg.ORS.Key)))
		}
		engine := isochrone.NewEngine(newOverpass(st), opts...)

		center := referencePoint(ctx, newNominatim())

		run, err := st.StartRun(ctx, "isochrones")
		if err != nil {
			return err
		}

		fc, runErr := engine.Generate(ctx, center, cfg.Isochrone.Minutes)
		summary := map[string]any{"minutes": cfg.Isochrone.Minutes, "center": center}
		closeRun(ctx, st, run, summary, runErr)
		if runErr != nil {
			return eris.Wrap(runErr, "isochrones")
		}

		path, err := writeGeoJSON("isochrones.geojson", fc)
		if err != nil {
			return err
		}

		zap.L().Info("isochrones written",
			zap.String("path", path),
			zap.Int("features", len(fc.Features)),
			zap.Ints("minutes", cfg.Isochrone.Minutes),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(isochronesCmd)
}
