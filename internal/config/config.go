// Package config loads service configuration from an env file and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"mecabal-location/internal/geo"
	"mecabal-location/internal/landmarks"
	"mecabal-location/internal/neighborhood"
	"mecabal-location/internal/query"
	"mecabal-location/internal/retry"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	ServerAddress     string `mapstructure:"SERVER_ADDRESS"`
	DBSource          string `mapstructure:"DB_SOURCE"`
	NeighborhoodsFile string `mapstructure:"NEIGHBORHOODS_FILE"`

	CacheBackend  string `mapstructure:"CACHE_BACKEND"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PlacesAPIKey  string        `mapstructure:"PLACES_API_KEY"`
	PlacesBaseURL string        `mapstructure:"PLACES_BASE_URL"`
	PlacesTimeout time.Duration `mapstructure:"PLACES_TIMEOUT"`

	RegionLatMin float64 `mapstructure:"REGION_LAT_MIN"`
	RegionLatMax float64 `mapstructure:"REGION_LAT_MAX"`
	RegionLonMin float64 `mapstructure:"REGION_LON_MIN"`
	RegionLonMax float64 `mapstructure:"REGION_LON_MAX"`

	MatchVerifiedThreshold    float64 `mapstructure:"MATCH_VERIFIED_THRESHOLD"`
	MatchCandidateMultiplier  float64 `mapstructure:"MATCH_CANDIDATE_MULTIPLIER"`
	MatchSuggestionMultiplier float64 `mapstructure:"MATCH_SUGGESTION_MULTIPLIER"`
	MatchMaxSuggestions       int     `mapstructure:"MATCH_MAX_SUGGESTIONS"`

	CachePositiveTTL time.Duration `mapstructure:"CACHE_POSITIVE_TTL"`
	CacheNegativeTTL time.Duration `mapstructure:"CACHE_NEGATIVE_TTL"`

	LandmarkTypes      []string `mapstructure:"LANDMARK_TYPES"`
	LandmarkBatchSize  int      `mapstructure:"LANDMARK_BATCH_SIZE"`
	LandmarkMaxPerType int      `mapstructure:"LANDMARK_MAX_PER_TYPE"`
	LandmarkMaxResults int      `mapstructure:"LANDMARK_MAX_RESULTS"`

	QueryMaxVariations int    `mapstructure:"QUERY_MAX_VARIATIONS"`
	QueryRegionContext string `mapstructure:"QUERY_REGION_CONTEXT"`

	TextSearchMaxResults int `mapstructure:"TEXT_SEARCH_MAX_RESULTS"`

	RetryMaxAttempts     int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryInitialInterval time.Duration `mapstructure:"RETRY_INITIAL_INTERVAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("DB_SOURCE", "")
	v.SetDefault("NEIGHBORHOODS_FILE", "")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PLACES_API_KEY", "")
	v.SetDefault("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("PLACES_TIMEOUT", 10*time.Second)

	// Nigeria
	v.SetDefault("REGION_LAT_MIN", 4.0)
	v.SetDefault("REGION_LAT_MAX", 14.0)
	v.SetDefault("REGION_LON_MIN", 2.5)
	v.SetDefault("REGION_LON_MAX", 15.0)

	match := neighborhood.DefaultOptions()
	v.SetDefault("MATCH_VERIFIED_THRESHOLD", match.VerifiedThreshold)
	v.SetDefault("MATCH_CANDIDATE_MULTIPLIER", match.CandidateMultiplier)
	v.SetDefault("MATCH_SUGGESTION_MULTIPLIER", match.SuggestionMultiplier)
	v.SetDefault("MATCH_MAX_SUGGESTIONS", match.MaxSuggestions)

	v.SetDefault("CACHE_POSITIVE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_NEGATIVE_TTL", time.Minute)

	lm := landmarks.DefaultOptions()
	v.SetDefault("LANDMARK_TYPES", lm.Types)
	v.SetDefault("LANDMARK_BATCH_SIZE", lm.BatchSize)
	v.SetDefault("LANDMARK_MAX_PER_TYPE", lm.MaxPerType)
	v.SetDefault("LANDMARK_MAX_RESULTS", lm.MaxResults)

	q := query.DefaultOptions()
	v.SetDefault("QUERY_MAX_VARIATIONS", q.MaxVariations)
	v.SetDefault("QUERY_REGION_CONTEXT", q.RegionContext)

	v.SetDefault("TEXT_SEARCH_MAX_RESULTS", 20)

	rp := retry.DefaultPolicy()
	v.SetDefault("RETRY_MAX_ATTEMPTS", rp.MaxAttempts)
	v.SetDefault("RETRY_INITIAL_INTERVAL", rp.InitialInterval)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// LoadConfig reads app.env from path, if present, and lets environment variables override it.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("config: reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.RegionLatMin >= c.RegionLatMax || c.RegionLonMin >= c.RegionLonMax:
		return fmt.Errorf("config: region bounding box is empty or inverted")
	case c.RegionLatMin < -90 || c.RegionLatMax > 90 || c.RegionLonMin < -180 || c.RegionLonMax > 180:
		return fmt.Errorf("config: region bounding box exceeds valid coordinates")
	case c.MatchVerifiedThreshold < 0 || c.MatchVerifiedThreshold > 1:
		return fmt.Errorf("config: MATCH_VERIFIED_THRESHOLD must be within [0,1]")
	case c.MatchCandidateMultiplier <= 0 || c.MatchSuggestionMultiplier <= 0:
		return fmt.Errorf("config: match multipliers must be positive")
	case c.MatchMaxSuggestions <= 0:
		return fmt.Errorf("config: MATCH_MAX_SUGGESTIONS must be positive")
	case c.CachePositiveTTL <= 0 || c.CacheNegativeTTL < 0:
		return fmt.Errorf("config: cache TTLs must be positive")
	case c.LandmarkBatchSize <= 0 || c.LandmarkMaxPerType <= 0 || c.LandmarkMaxResults <= 0:
		return fmt.Errorf("config: landmark batch size and caps must be positive")
	case c.QueryMaxVariations <= 0 || c.TextSearchMaxResults <= 0:
		return fmt.Errorf("config: query limits must be positive")
	case c.CacheBackend != "memory" && c.CacheBackend != "redis":
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	case c.CacheBackend == "redis" && c.RedisAddr == "":
		return fmt.Errorf("config: CACHE_BACKEND=redis requires REDIS_ADDR")
	}
	return nil
}

// Region returns the operating-region bounding box.
func (c Config) Region() geo.Bounds {
	return geo.Bounds{LatMin: c.RegionLatMin, LatMax: c.RegionLatMax, LonMin: c.RegionLonMin, LonMax: c.RegionLonMax}
}

// MatchOptions returns the neighborhood matcher thresholds.
func (c Config) MatchOptions() neighborhood.Options {
	return neighborhood.Options{
		VerifiedThreshold:    c.MatchVerifiedThreshold,
		CandidateMultiplier:  c.MatchCandidateMultiplier,
		SuggestionMultiplier: c.MatchSuggestionMultiplier,
		MaxSuggestions:       c.MatchMaxSuggestions,
	}
}

// LandmarkOptions returns the aggregator fan-out settings.
func (c Config) LandmarkOptions() landmarks.Options {
	return landmarks.Options{
		Types:      c.LandmarkTypes,
		BatchSize:  c.LandmarkBatchSize,
		MaxPerType: c.LandmarkMaxPerType,
		MaxResults: c.LandmarkMaxResults,
		CacheTTL:   c.CachePositiveTTL,
	}
}

// QueryOptions returns the variation generator settings.
func (c Config) QueryOptions() query.Options {
	opts := query.DefaultOptions()
	opts.MaxVariations = c.QueryMaxVariations
	opts.RegionContext = c.QueryRegionContext
	return opts
}

// RetryPolicy returns the caller-side retry policy for provider calls.
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.RetryMaxAttempts
	p.InitialInterval = c.RetryInitialInterval
	return p
}
