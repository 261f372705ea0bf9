package service

import (
	"context"
	"time"

	"mecabal-location/internal/models"
	"mecabal-location/internal/places"
	"mecabal-location/internal/retry"
)

// PlacesProvider is the places client surface the service depends on.
type PlacesProvider interface {
	SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error)
	SearchByText(ctx context.Context, query string, bias *places.Bias) ([]models.PlaceResult, error)
	Details(ctx context.Context, placeID string) (*models.PlaceResult, error)
}

// GuardedProvider bounds every provider call with a timeout and retries retryable failures.
type GuardedProvider struct {
	next    PlacesProvider
	policy  retry.Policy
	timeout time.Duration
}

// NewGuardedProvider wraps next. A non-positive timeout disables the per-call deadline.
func NewGuardedProvider(next PlacesProvider, policy retry.Policy, timeout time.Duration) *GuardedProvider {
	return &GuardedProvider{next: next, policy: policy, timeout: timeout}
}

func (g *GuardedProvider) SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error) {
	return guard(ctx, g, func(ctx context.Context) ([]models.PlaceResult, error) {
		return g.next.SearchNearby(ctx, coords, placeType, radiusM, keyword)
	})
}

func (g *GuardedProvider) SearchByText(ctx context.Context, query string, bias *places.Bias) ([]models.PlaceResult, error) {
	return guard(ctx, g, func(ctx context.Context) ([]models.PlaceResult, error) {
		return g.next.SearchByText(ctx, query, bias)
	})
}

func (g *GuardedProvider) Details(ctx context.Context, placeID string) (*models.PlaceResult, error) {
	return guard(ctx, g, func(ctx context.Context) (*models.PlaceResult, error) {
		return g.next.Details(ctx, placeID)
	})
}

// guard applies the timeout per attempt so a slow first try does not starve the retries.
func guard[T any](ctx context.Context, g *GuardedProvider, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, g.policy, func(ctx context.Context) (T, error) {
		if g.timeout <= 0 {
			return fn(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(ctx)
	})
}
