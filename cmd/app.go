package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/internal/store"
	"github.com/ararat-labs/housing-cli/pkg/nominatim"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

func initStore() (*store.Store, error) {
	st, err := store.Open(cfg.Data.CacheDB)
	if err != nil {
		return nil, eris.Wrap(err, "open cache store")
	}
	return st, nil
}

func newNominatim() *nominatim.Client {
	return nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithCountryCodes(cfg.Nominatim.CountryCodes),
		nominatim.WithRateInterval(secs(cfg.Nominatim.DelaySecs)),
	)
}

func newOverpass(cache overpass.Cache) *overpass.Client {
	return overpass.NewClient(
		overpass.WithMirrors(cfg.Overpass.Mirrors),
		overpass.WithRateInterval(secs(cfg.Overpass.DelaySecs)),
		overpass.WithMirrorBackoff(secs(cfg.Overpass.BackoffSecs)),
		overpass.WithCache(cache),
	)
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func cityBBox() overpass.BBox {
	return overpass.BBox{
		South: cfg.City.BBoxSouth,
		West:  cfg.City.BBoxWest,
		North: cfg.City.BBoxNorth,
		East:  cfg.City.BBoxEast,
	}
}

// referencePoint geocodes the configured reference address, falling back
// to the pinned coordinate when the lookup fails.
func referencePoint(ctx context.Context, nom *nominatim.Client) geo.Point {
	fallback := geo.Point{Lat: cfg.City.RefFallbackLat, Lng: cfg.City.RefFallbackLng}

	res, err := nom.Search(ctx, cfg.City.RefAddress, nominatim.SearchOptions{})
	if err != nil || res == nil {
		zap.L().Warn("reference address lookup failed, using fallback",
			zap.String("address", cfg.City.RefAddress),
			zap.Float64("lat", fallback.Lat),
			zap.Float64("lng", fallback.Lng),
			zap.Error(err),
		)
		return fallback
	}
	return geo.Point{Lat: res.Lat, Lng: res.Lng}
}

// writeGeoJSON writes a feature collection into the output directory.
func writeGeoJSON(name string, fc *geojson.FeatureCollection) (string, error) {
	if err := os.MkdirAll(cfg.Data.OutputDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "mkdir %s", cfg.Data.OutputDir)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "marshal geojson")
	}

	path := filepath.Join(cfg.Data.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// closeRun records the outcome of a pipeline run; failures to write the
// run log are logged, not propagated, so they never mask the real error.
func closeRun(ctx context.Context, st *store.Store, run *store.Run, summary any, runErr error) {
	var err error
	if runErr != nil {
		err = st.FailRun(ctx, run.ID, runErr)
	} else {
		err = st.FinishRun(ctx, run.ID, summary)
	}
	if err != nil {
		zap.L().Warn("record run outcome", zap.String("run_id", run.ID), zap.Error(err))
	}
}
