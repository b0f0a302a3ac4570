// Package config loads application configuration from an optional yaml
// file and HOUSING_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	ORS       ORSConfig       `yaml:"ors" mapstructure:"ors"`
	OSRM      OSRMConfig      `yaml:"osrm" mapstructure:"osrm"`
	City      CityConfig      `yaml:"city" mapstructure:"city"`
	Isochrone IsochroneConfig `yaml:"isochrone" mapstructure:"isochrone"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the on-disk artifacts the pipeline reads and writes.
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	ListingsFile string `yaml:"listings_file" mapstructure:"listings_file"`
	Overrides    string `yaml:"overrides_file" mapstructure:"overrides_file"`
	Districts    string `yaml:"districts_file" mapstructure:"districts_file"`
	CacheDB      string `yaml:"cache_db" mapstructure:"cache_db"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// NominatimConfig configures the geocoding client.
type NominatimConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	CountryCodes string  `yaml:"country_codes" mapstructure:"country_codes"`
	DelaySecs    float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// OverpassConfig configures the road-data client.
type OverpassConfig struct {
	Mirrors     []string `yaml:"mirrors" mapstructure:"mirrors"`
	DelaySecs   float64  `yaml:"delay_secs" mapstructure:"delay_secs"`
	BackoffSecs float64  `yaml:"backoff_secs" mapstructure:"backoff_secs"`
}

// ORSConfig holds the optional OpenRouteService credential. An empty key
// routes isochrone generation through the local fallback.
type ORSConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OSRMConfig configures the route-estimate client.
type OSRMConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	DelaySecs float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// CityConfig pins the pipeline to its city: search box, query suffix and
// the reference point distances are measured to.
type CityConfig struct {
	QuerySuffix string  `yaml:"query_suffix" mapstructure:"query_suffix"`
	BBoxSouth   float64 `yaml:"bbox_south" mapstructure:"bbox_south"`
	BBoxWest    float64 `yaml:"bbox_west" mapstructure:"bbox_west"`
	BBoxNorth   float64 `yaml:"bbox_north" mapstructure:"bbox_north"`
	BBoxEast    float64 `yaml:"bbox_east" mapstructure:"bbox_east"`

	RefAddress     string  `yaml:"ref_address" mapstructure:"ref_address"`
	RefFallbackLat float64 `yaml:"ref_fallback_lat" mapstructure:"ref_fallback_lat"`
	RefFallbackLng float64 `yaml:"ref_fallback_lng" mapstructure:"ref_fallback_lng"`
}

// IsochroneConfig configures isochrone generation.
type IsochroneConfig struct {
	Minutes      []int   `yaml:"minutes" mapstructure:"minutes"`
	WalkSpeedMps float64 `yaml:"walk_speed_mps" mapstructure:"walk_speed_mps"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOUSING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.listings_file", "data/listings.json")
	v.SetDefault("data.overrides_file", "data/geocode_overrides.json")
	v.SetDefault("data.districts_file", "data/district_boxes.json")
	v.SetDefault("data.cache_db", "data/cache.db")
	v.SetDefault("data.output_dir", "data/output")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.country_codes", "am")
	v.SetDefault("nominatim.delay_secs", 1.1)
	v.SetDefault("overpass.mirrors", []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
		"https://overpass.nchc.org.tw/api/interpreter",
	})
	v.SetDefault("overpass.delay_secs", 1.1)
	v.SetDefault("overpass.backoff_secs", 2.0)
	v.SetDefault("osrm.base_url", "http://router.project-osrm.org")
	v.SetDefault("osrm.delay_secs", 0.5)
	v.SetDefault("city.query_suffix", "Yerevan, Armenia")
	v.SetDefault("city.bbox_south", 40.10)
	v.SetDefault("city.bbox_west", 44.40)
	v.SetDefault("city.bbox_north", 40.30)
	v.SetDefault("city.bbox_east", 44.65)
	v.SetDefault("city.ref_address", "21 Frik Street, Yerevan, Armenia")
	v.SetDefault("city.ref_fallback_lat", 40.1852)
	v.SetDefault("city.ref_fallback_lng", 44.5136)
	v.SetDefault("isochrone.minutes", []int{15, 30, 45, 60})
	v.SetDefault("isochrone.walk_speed_mps", 1.35)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
