package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/model"
	"github.com/ararat-labs/housing-cli/internal/spread"
)

var spreadCmd = &cobra.Command{
	Use:   "spread",
	Short: "Spread stacked listing coordinates apart",
	Long:  "Moves listings that share a street-level or district-level fix: street groups are interpolated along the street's OSM geometry, the rest get deterministic jitter.",
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
			zap.L().Warn("no listings to spread", zap.String("file", cfg.Data.ListingsFile))
			return nil
		}

		run, err := st.StartRun(ctx, "spread")
		if err != nil {
			return err
		}

		engine := spread.NewEngine(newOverpass(st), cityBBox())
		summary, runErr := engine.Run(ctx, listings)
		closeRun(ctx, st, run, summary, runErr)

		if err := model.SaveListings(cfg.Data.ListingsFile, listings); err != nil {
			return err
		}
		if runErr != nil {
			return eris.Wrap(runErr, "spread")
		}

		zap.L().Info("spread complete",
			zap.Int("moved", summary.Moved),
			zap.Int("streets_spread", summary.StreetsSpread),
			zap.Int("jittered", summary.Jittered),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(spreadCmd)
}
