// Package landmarks composes multi-type nearby searches into one ranked landmark list.
package landmarks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mecabal-location/internal/cache"
	"mecabal-location/internal/metrics"
	"mecabal-location/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultTypes are the place types searched for landmarks.
var DefaultTypes = []string{
	"hospital", "school", "shopping_mall", "bank", "restaurant",
	"church", "mosque", "police", "pharmacy", "supermarket",
}

// NearbySearcher is the part of the places client the aggregator needs.
type NearbySearcher interface {
	SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error)
}

// Options tunes the fan-out.
type Options struct {
	Types      []string
	BatchSize  int
	MaxPerType int
	MaxResults int
	CacheTTL   time.Duration
}

// DefaultOptions returns batches of 2, 3 results per type and 15 overall, cached for 5 minutes.
func DefaultOptions() Options {
	return Options{
		Types:      DefaultTypes,
		BatchSize:  2,
		MaxPerType: 3,
		MaxResults: 15,
		CacheTTL:   5 * time.Minute,
	}
}

// Aggregator discovers landmarks around a point.
type Aggregator struct {
	searcher NearbySearcher
	cache    *cache.Cache
	opts     Options
}

// NewAggregator creates an aggregator. Zero-valued options fall back to DefaultOptions.
func NewAggregator(searcher NearbySearcher, c *cache.Cache, opts Options) *Aggregator {
	def := DefaultOptions()
	if opts.Types == nil {
		opts.Types = def.Types
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxPerType <= 0 {
		opts.MaxPerType = def.MaxPerType
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	return &Aggregator{searcher: searcher, cache: c, opts: opts}
}

// Discover returns up to maxResults landmarks within radiusM of coords, deduplicated by
// place id and ranked by rating. Individual type failures are tolerated; an error is
// returned only when every type search failed.
func (a *Aggregator) Discover(ctx context.Context, coords models.Coordinates, radiusM, maxResults int) ([]models.PlaceResult, error) {
	if maxResults <= 0 {
		maxResults = a.opts.MaxResults
	}

	key := cache.CoordinateKey("landmarks", coords, radiusM)
	merged, err := cache.GetOrCompute(ctx, a.cache, key, a.opts.CacheTTL, func(ctx context.Context) ([]models.PlaceResult, error) {
		return a.collect(ctx, coords, radiusM)
	})
	if err != nil {
		return nil, err
	}

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

type typeOutcome struct {
	results []models.PlaceResult
	err     error
}

// collect runs the per-type searches batch by batch and merges them.
func (a *Aggregator) collect(ctx context.Context, coords models.Coordinates, radiusM int) ([]models.PlaceResult, error) {
	logger := zerolog.Ctx(ctx)
	types := a.opts.Types
	outcomes := make([]typeOutcome, len(types))

	for start := 0; start < len(types); start += a.opts.BatchSize {
		end := min(start+a.opts.BatchSize, len(types))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results, err := a.searcher.SearchNearby(ctx, coords, types[i], radiusM, "")
				if len(results) > a.opts.MaxPerType {
					results = results[:a.opts.MaxPerType]
				}
				outcomes[i] = typeOutcome{results: results, err: err}
				return nil
			})
		}
		g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("landmarks: discovery interrupted: %w", err)
		}
	}

	var firstErr error
	failed := 0
	for i, o := range outcomes {
		if o.err == nil {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = o.err
		}
		metrics.LandmarkTypeFailuresTotal.WithLabelValues(types[i]).Inc()
		logger.Warn().Err(o.err).Str("type", types[i]).Msg("landmark type search failed")
	}
	if len(types) > 0 && failed == len(types) {
		return nil, firstErr
	}

	return merge(outcomes), nil
}

// merge dedups by place id in type order and ranks by rating, missing ratings as 0.
func merge(outcomes []typeOutcome) []models.PlaceResult {
	seen := make(map[string]struct{})
	merged := make([]models.PlaceResult, 0)
	for _, o := range outcomes {
		for _, p := range o.results {
			if _, dup := seen[p.PlaceID]; dup {
				continue
			}
			seen[p.PlaceID] = struct{}{}
			merged = append(merged, p)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ri, rj := merged[i].RatingOrZero(), merged[j].RatingOrZero()
		if ri != rj {
			return ri > rj
		}
		return merged[i].Name < merged[j].Name
	})
	return merged
}
