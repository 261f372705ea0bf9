// Package neighborhood verifies GPS coordinates against known neighborhoods.
package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/geo"
	"mecabal-location/internal/metrics"
	"mecabal-location/internal/models"
)

// ErrMalformedNeighborhood reports reference data that cannot be matched against.
var ErrMalformedNeighborhood = errors.New("malformed neighborhood reference data")

// Repository supplies neighborhoods whose center lies within radiusKm × radiusMultiplier of
// coords. Implementations may return extra rows; the matcher re-checks every distance.
type Repository interface {
	FindCandidates(ctx context.Context, coords models.Coordinates, radiusMultiplier float64) ([]models.Neighborhood, error)
}

// CoordinateValidator gates coordinates before any matching work.
type CoordinateValidator interface {
	Validate(models.Coordinates) error
}

// TransitionFunc observes state machine transitions.
type TransitionFunc func(from, to models.VerificationStatus)

// Options holds the matching thresholds.
type Options struct {
	VerifiedThreshold    float64
	CandidateMultiplier  float64
	SuggestionMultiplier float64
	MaxSuggestions       int
	OnTransition         TransitionFunc
}

// DefaultOptions returns a 0.5 verified threshold, 2x candidate and suggestion radii and
// three suggestions.
func DefaultOptions() Options {
	return Options{
		VerifiedThreshold:    0.5,
		CandidateMultiplier:  2.0,
		SuggestionMultiplier: 2.0,
		MaxSuggestions:       3,
	}
}

// Matcher runs the verification state machine.
type Matcher struct {
	repo      Repository
	validator CoordinateValidator
	opts      Options
}

// NewMatcher creates a matcher.
func NewMatcher(repo Repository, validator CoordinateValidator, opts Options) *Matcher {
	return &Matcher{repo: repo, validator: validator, opts: opts}
}

// Verify resolves coords to a verified neighborhood, ranked suggestions, or a rejection.
// Not finding a neighborhood is a result, not an error; errors are reserved for repository
// failures and malformed reference data.
func (m *Matcher) Verify(ctx context.Context, coords models.Coordinates) (models.VerificationResult, error) {
	m.transition(models.StatusUnverified, models.StatusVerifying)

	if err := m.validator.Validate(coords); err != nil {
		return m.finish(models.Rejected(apperr.KindOf(err))), nil
	}

	hoods, err := m.repo.FindCandidates(ctx, coords, m.opts.CandidateMultiplier)
	if err != nil {
		m.transition(models.StatusVerifying, models.StatusUnverified)
		return models.VerificationResult{}, fmt.Errorf("neighborhood: failed to fetch candidates: %w", err)
	}

	candidates, err := m.score(coords, hoods)
	if err != nil {
		m.transition(models.StatusVerifying, models.StatusUnverified)
		return models.VerificationResult{}, err
	}

	if best, ok := m.bestVerified(candidates); ok {
		return m.finish(models.Verified(best)), nil
	}

	if suggestions := m.suggestions(candidates); len(suggestions) > 0 {
		return m.finish(models.Unverified(suggestions)), nil
	}
	return m.finish(models.Rejected(apperr.NoNearbyNeighborhood)), nil
}

// score keeps neighborhoods within the candidate radius and computes their confidence.
func (m *Matcher) score(coords models.Coordinates, hoods []models.Neighborhood) ([]models.NeighborhoodMatch, error) {
	out := make([]models.NeighborhoodMatch, 0, len(hoods))
	for _, n := range hoods {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("neighborhood: %w: %v", ErrMalformedNeighborhood, err)
		}
		d := geo.DistanceKm(coords, n.Center)
		if d > n.RadiusKm*m.opts.CandidateMultiplier {
			continue
		}
		out = append(out, models.NeighborhoodMatch{
			Neighborhood: n,
			DistanceKm:   d,
			Confidence:   clamp(1-d/n.RadiusKm, 0, 1),
		})
	}
	return out, nil
}

// bestVerified picks the highest-confidence match inside its own geofence. Equal confidence
// prefers the smaller radius, then the lower id.
func (m *Matcher) bestVerified(candidates []models.NeighborhoodMatch) (models.NeighborhoodMatch, bool) {
	var best models.NeighborhoodMatch
	found := false
	for _, c := range candidates {
		if c.Confidence < m.opts.VerifiedThreshold || c.DistanceKm > c.Neighborhood.RadiusKm {
			continue
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

func better(a, b models.NeighborhoodMatch) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Neighborhood.RadiusKm != b.Neighborhood.RadiusKm {
		return a.Neighborhood.RadiusKm < b.Neighborhood.RadiusKm
	}
	return a.Neighborhood.ID < b.Neighborhood.ID
}

func (m *Matcher) suggestions(candidates []models.NeighborhoodMatch) []models.NeighborhoodMatch {
	var out []models.NeighborhoodMatch
	for _, c := range candidates {
		if c.DistanceKm <= c.Neighborhood.RadiusKm*m.opts.SuggestionMultiplier {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Neighborhood.ID < out[j].Neighborhood.ID
	})
	if len(out) > m.opts.MaxSuggestions {
		out = out[:m.opts.MaxSuggestions]
	}
	return out
}

func (m *Matcher) finish(r models.VerificationResult) models.VerificationResult {
	m.transition(models.StatusVerifying, r.Status)
	metrics.VerificationsTotal.WithLabelValues(string(r.Status)).Inc()
	return r
}

func (m *Matcher) transition(from, to models.VerificationStatus) {
	if m.opts.OnTransition != nil {
		m.opts.OnTransition(from, to)
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
