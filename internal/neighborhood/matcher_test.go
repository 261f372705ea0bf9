package neighborhood

import (
	"context"
	"math"
	"testing"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/geo"
	"mecabal-location/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindCandidates(ctx context.Context, coords models.Coordinates, radiusMultiplier float64) ([]models.Neighborhood, error) {
	args := m.Called(ctx, coords, radiusMultiplier)
	hoods, _ := args.Get(0).([]models.Neighborhood)
	return hoods, args.Error(1)
}

var (
	lagosRegion = geo.Bounds{LatMin: 4.0, LatMax: 14.0, LonMin: 2.5, LonMax: 15.0}
	ikejaGRA    = models.Coordinates{Latitude: 6.605, Longitude: 3.355}
)

// north returns the point km kilometers due north of c.
func north(c models.Coordinates, km float64) models.Coordinates {
	return models.Coordinates{Latitude: c.Latitude + km/(geo.EarthRadiusKm*math.Pi/180), Longitude: c.Longitude}
}

func hood(id string, center models.Coordinates, radiusKm float64) models.Neighborhood {
	return models.Neighborhood{ID: id, Name: "Hood " + id, Type: models.NeighborhoodEstate, Center: center, RadiusKm: radiusKm}
}

func newStaticMatcher(t *testing.T, hoods ...models.Neighborhood) *Matcher {
	repo, err := NewStaticRepository(hoods)
	require.NoError(t, err)
	return NewMatcher(repo, geo.NewValidator(lagosRegion), DefaultOptions())
}

func TestMatcher_Verify_ExactCenter(t *testing.T) {
	m := newStaticMatcher(t, hood("gra", ikejaGRA, 1))

	result, err := m.Verify(context.Background(), ikejaGRA)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, result.Status)
	require.NotNil(t, result.Match)
	assert.Equal(t, "gra", result.Match.Neighborhood.ID)
	assert.InDelta(t, 1.0, result.Match.Confidence, 1e-12)
	assert.InDelta(t, 0.0, result.Match.DistanceKm, 1e-9)
	assert.Empty(t, result.Suggestions)
}

func TestMatcher_Verify_Outcomes(t *testing.T) {
	tests := []struct {
		name           string
		point          models.Coordinates
		expectedStatus models.VerificationStatus
		expectedIDs    []string
		expectedReason apperr.Kind
	}{
		{name: "well inside geofence", point: north(ikejaGRA, 0.3), expectedStatus: models.StatusVerified, expectedIDs: []string{"gra"}},
		{name: "inside geofence but low confidence", point: north(ikejaGRA, 0.7), expectedStatus: models.StatusUnverified, expectedIDs: []string{"gra"}},
		{name: "near miss outside geofence", point: north(ikejaGRA, 1.5), expectedStatus: models.StatusUnverified, expectedIDs: []string{"gra"}},
		{name: "five kilometers away", point: north(ikejaGRA, 5), expectedStatus: models.StatusRejected, expectedReason: apperr.NoNearbyNeighborhood},
		{name: "impossible latitude", point: models.Coordinates{Latitude: 91, Longitude: 0}, expectedStatus: models.StatusRejected, expectedReason: apperr.InvalidCoordinate},
		{name: "outside operating region", point: models.Coordinates{Latitude: 51.5, Longitude: -0.12}, expectedStatus: models.StatusRejected, expectedReason: apperr.OutOfRegion},
	}

	m := newStaticMatcher(t, hood("gra", ikejaGRA, 1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := m.Verify(context.Background(), tt.point)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedReason, result.Reason)

			switch result.Status {
			case models.StatusVerified:
				require.NotNil(t, result.Match)
				assert.Equal(t, tt.expectedIDs, []string{result.Match.Neighborhood.ID})
				assert.Nil(t, result.Suggestions)
			case models.StatusUnverified:
				assert.Nil(t, result.Match)
				ids := make([]string, 0, len(result.Suggestions))
				for _, s := range result.Suggestions {
					ids = append(ids, s.Neighborhood.ID)
				}
				assert.Equal(t, tt.expectedIDs, ids)
			case models.StatusRejected:
				assert.Nil(t, result.Match)
				assert.Nil(t, result.Suggestions)
			}
		})
	}
}

func TestMatcher_Verify_PrefersHighestConfidence(t *testing.T) {
	point := ikejaGRA
	small := hood("small", north(point, 0.2), 1)   // confidence 0.8
	large := hood("large", north(point, -1.0), 10) // confidence 0.9
	m := newStaticMatcher(t, small, large)

	result, err := m.Verify(context.Background(), point)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, "large", result.Match.Neighborhood.ID)
	assert.InDelta(t, 0.9, result.Match.Confidence, 1e-9)
}

func TestMatcher_Verify_TieBreaksOnSmallerRadius(t *testing.T) {
	m := newStaticMatcher(t,
		hood("a-wide", ikejaGRA, 2.5),
		hood("z-narrow", ikejaGRA, 0.8),
		hood("m-mid", ikejaGRA, 1.2),
	)

	result, err := m.Verify(context.Background(), ikejaGRA)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, result.Status)
	assert.Equal(t, "z-narrow", result.Match.Neighborhood.ID)
}

func TestMatcher_Verify_SuggestionsSortedAndCapped(t *testing.T) {
	point := ikejaGRA
	m := newStaticMatcher(t,
		hood("d", north(point, 1.9), 1),
		hood("a", north(point, 1.2), 1),
		hood("c", north(point, -1.6), 1),
		hood("b", north(point, 1.4), 1),
		hood("far", north(point, 2.5), 1),
	)

	result, err := m.Verify(context.Background(), point)
	require.NoError(t, err)
	require.Equal(t, models.StatusUnverified, result.Status)
	require.Len(t, result.Suggestions, 3)

	ids := []string{result.Suggestions[0].Neighborhood.ID, result.Suggestions[1].Neighborhood.ID, result.Suggestions[2].Neighborhood.ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	for i := 1; i < len(result.Suggestions); i++ {
		assert.LessOrEqual(t, result.Suggestions[i-1].DistanceKm, result.Suggestions[i].DistanceKm)
	}
	for _, s := range result.Suggestions {
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
	}
}

func TestMatcher_Verify_RejectsBeforeRepository(t *testing.T) {
	repo := new(MockRepository)
	m := NewMatcher(repo, geo.NewValidator(lagosRegion), DefaultOptions())

	result, err := m.Verify(context.Background(), models.Coordinates{Latitude: math.NaN(), Longitude: 3})
	require.NoError(t, err)
	assert.Equal(t, models.Rejected(apperr.InvalidCoordinate), result)
	repo.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcher_Verify_RepositoryFailures(t *testing.T) {
	t.Run("repository error", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindCandidates", mock.Anything, ikejaGRA, 2.0).Return(nil, assert.AnError)
		m := NewMatcher(repo, geo.NewValidator(lagosRegion), DefaultOptions())

		_, err := m.Verify(context.Background(), ikejaGRA)
		assert.ErrorIs(t, err, assert.AnError)
		repo.AssertExpectations(t)
	})

	t.Run("malformed reference data", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FindCandidates", mock.Anything, ikejaGRA, 2.0).Return([]models.Neighborhood{hood("broken", ikejaGRA, 0)}, nil)
		m := NewMatcher(repo, geo.NewValidator(lagosRegion), DefaultOptions())

		_, err := m.Verify(context.Background(), ikejaGRA)
		assert.ErrorIs(t, err, ErrMalformedNeighborhood)
		assert.False(t, apperr.IsTyped(err))
	})
}

func TestMatcher_Verify_Transitions(t *testing.T) {
	repo, err := NewStaticRepository([]models.Neighborhood{hood("gra", ikejaGRA, 1)})
	require.NoError(t, err)

	var seen []models.VerificationStatus
	opts := DefaultOptions()
	opts.OnTransition = func(from, to models.VerificationStatus) {
		seen = append(seen, from, to)
	}
	m := NewMatcher(repo, geo.NewValidator(lagosRegion), opts)

	_, err = m.Verify(context.Background(), ikejaGRA)
	require.NoError(t, err)
	assert.Equal(t, []models.VerificationStatus{
		models.StatusUnverified, models.StatusVerifying,
		models.StatusVerifying, models.StatusVerified,
	}, seen)
}

func TestNewStaticRepository_RejectsMalformed(t *testing.T) {
	_, err := NewStaticRepository([]models.Neighborhood{{ID: "x", Name: "X", Type: "village", Center: ikejaGRA, RadiusKm: 1}})
	assert.ErrorIs(t, err, ErrMalformedNeighborhood)
}
