package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/cache"
	"mecabal-location/internal/models"
	"mecabal-location/internal/places"
	"mecabal-location/internal/query"

	"github.com/rs/zerolog"
)

// Verifier resolves coordinates to a neighborhood verification outcome.
type Verifier interface {
	Verify(ctx context.Context, coords models.Coordinates) (models.VerificationResult, error)
}

// LandmarkDiscoverer aggregates landmarks around a point.
type LandmarkDiscoverer interface {
	Discover(ctx context.Context, coords models.Coordinates, radiusM, maxResults int) ([]models.PlaceResult, error)
}

// CoordinateValidator checks coordinates before any provider call.
type CoordinateValidator interface {
	Validate(c models.Coordinates) error
}

// VariationGenerator expands a free-text query into search variations.
type VariationGenerator interface {
	Generate(q string) query.VariationSet
}

// Options tunes the facade.
type Options struct {
	TextMaxResults  int
	BiasRadiusM     int
	LandmarkRadiusM int
	CacheTTL        time.Duration
}

// DefaultOptions caps text search at 20 results, biases within 5 km and searches
// landmarks within 2 km.
func DefaultOptions() Options {
	return Options{TextMaxResults: 20, BiasRadiusM: 5000, LandmarkRadiusM: 2000, CacheTTL: 5 * time.Minute}
}

// Deps are the collaborators of LocationService.
type Deps struct {
	Verifier   Verifier
	Landmarks  LandmarkDiscoverer
	Places     PlacesProvider
	Variations VariationGenerator
	Validator  CoordinateValidator
	Cache      *cache.Cache
}

// LocationService is the entry point for verification, place search and landmark discovery.
type LocationService struct {
	deps Deps
	opts Options
}

// NewLocationService creates a location service. Zero-valued options fall back to DefaultOptions.
func NewLocationService(deps Deps, opts Options) *LocationService {
	def := DefaultOptions()
	if opts.TextMaxResults <= 0 {
		opts.TextMaxResults = def.TextMaxResults
	}
	if opts.BiasRadiusM <= 0 {
		opts.BiasRadiusM = def.BiasRadiusM
	}
	if opts.LandmarkRadiusM <= 0 {
		opts.LandmarkRadiusM = def.LandmarkRadiusM
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	return &LocationService{deps: deps, opts: opts}
}

// VerifyLocation verifies that coords fall inside a known neighborhood on behalf of userID.
// address is informational and only logged.
func (s *LocationService) VerifyLocation(ctx context.Context, userID string, coords models.Coordinates, address string) (models.VerificationResult, error) {
	if strings.TrimSpace(userID) == "" {
		return models.VerificationResult{}, apperr.New(apperr.InvalidRequest, "user id cannot be empty")
	}

	logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	result, err := s.deps.Verifier.Verify(ctx, coords)
	if err != nil {
		logger.Error().Err(err).Msg("location verification failed")
		return models.VerificationResult{}, fmt.Errorf("service: failed to verify location: %w", err)
	}

	ev := logger.Info().
		Str("status", string(result.Status)).
		Float64("lat", coords.Latitude).
		Float64("lon", coords.Longitude)
	if address != "" {
		ev = ev.Str("address", address)
	}
	if result.Match != nil {
		ev = ev.Str("neighborhood_id", result.Match.Neighborhood.ID).Float64("confidence", result.Match.Confidence)
	}
	if result.Reason != "" {
		ev = ev.Str("reason", string(result.Reason))
	}
	ev.Msg("location verified")

	return result, nil
}

// SearchPlacesByText searches every variation of q in order, optionally biased around coords,
// and merges the results by place id. It fails only when every variation failed, or at once
// on a request the provider will never accept.
func (s *LocationService) SearchPlacesByText(ctx context.Context, q string, coords *models.Coordinates, radiusM int) ([]models.PlaceResult, error) {
	variations := s.deps.Variations.Generate(q)
	if len(variations) == 0 {
		return nil, apperr.New(apperr.InvalidRequest, "query cannot be empty")
	}

	var bias *places.Bias
	key := cache.TextKey("text", q)
	if coords != nil {
		if err := s.deps.Validator.Validate(*coords); err != nil {
			return nil, err
		}
		if radiusM <= 0 {
			radiusM = s.opts.BiasRadiusM
		}
		bias = &places.Bias{Coordinates: *coords, RadiusM: radiusM}
		key = cache.CoordinateKey(key, *coords, radiusM)
	}

	return cache.GetOrCompute(ctx, s.deps.Cache, key, s.opts.CacheTTL, func(ctx context.Context) ([]models.PlaceResult, error) {
		return s.searchVariations(ctx, variations, bias)
	})
}

func (s *LocationService) searchVariations(ctx context.Context, variations query.VariationSet, bias *places.Bias) ([]models.PlaceResult, error) {
	logger := zerolog.Ctx(ctx)

	var (
		merged   []models.PlaceResult
		seen     = make(map[string]struct{})
		firstErr error
		failures int
	)

	for _, v := range variations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("service: text search interrupted: %w", err)
		}

		results, err := s.deps.Places.SearchByText(ctx, v, bias)
		if err != nil {
			switch apperr.KindOf(err) {
			case apperr.InvalidRequest, apperr.MissingCredentials:
				return nil, err
			}
			logger.Warn().Err(err).Str("variation", v).Msg("text search variation failed")
			if firstErr == nil {
				firstErr = err
			}
			failures++
			continue
		}

		for _, r := range results {
			if _, dup := seen[r.PlaceID]; dup {
				continue
			}
			seen[r.PlaceID] = struct{}{}
			merged = append(merged, r)
			if len(merged) >= s.opts.TextMaxResults {
				return merged, nil
			}
		}
	}

	if failures == len(variations) {
		return nil, firstErr
	}
	if merged == nil {
		merged = []models.PlaceResult{}
	}
	return merged, nil
}

// DiscoverNearbyLandmarks returns ranked landmarks around coords. A non-positive radiusM uses
// the configured default; a non-positive maxResults uses the aggregator's default.
func (s *LocationService) DiscoverNearbyLandmarks(ctx context.Context, coords models.Coordinates, radiusM, maxResults int) ([]models.PlaceResult, error) {
	if err := s.deps.Validator.Validate(coords); err != nil {
		return nil, err
	}
	if radiusM <= 0 {
		radiusM = s.opts.LandmarkRadiusM
	}
	return s.deps.Landmarks.Discover(ctx, coords, radiusM, maxResults)
}

// PlaceDetails returns one place by provider id.
func (s *LocationService) PlaceDetails(ctx context.Context, placeID string) (*models.PlaceResult, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, apperr.New(apperr.InvalidRequest, "place id cannot be empty")
	}

	return cache.GetOrCompute(ctx, s.deps.Cache, "details:"+placeID, s.opts.CacheTTL, func(ctx context.Context) (*models.PlaceResult, error) {
		return s.deps.Places.Details(ctx, placeID)
	})
}
