package landmarks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/cache"
	"mecabal-location/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNearbySearcher is a mock implementation of the NearbySearcher interface
type MockNearbySearcher struct {
	mock.Mock
}

func (m *MockNearbySearcher) SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error) {
	args := m.Called(ctx, coords, placeType, radiusM, keyword)
	results, _ := args.Get(0).([]models.PlaceResult)
	return results, args.Error(1)
}

var ikeja = models.Coordinates{Latitude: 6.6018, Longitude: 3.3515}

func rating(v float64) *float64 { return &v }

func place(id string, r *float64) models.PlaceResult {
	return models.PlaceResult{PlaceID: id, Name: "Place " + id, Rating: r}
}

func places(prefix string, n int) []models.PlaceResult {
	out := make([]models.PlaceResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, place(fmt.Sprintf("%s-%d", prefix, i), rating(float64(i))))
	}
	return out
}

func newCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), time.Minute)
}

func TestAggregator_Discover_MergesDedupsAndRanks(t *testing.T) {
	searcher := new(MockNearbySearcher)
	searcher.On("SearchNearby", mock.Anything, ikeja, "hospital", 2000, "").Return([]models.PlaceResult{
		place("shared", rating(4.9)), place("h1", rating(3.0)), place("h2", nil), place("h3-dropped", rating(5.0)),
	}, nil)
	searcher.On("SearchNearby", mock.Anything, ikeja, "bank", 2000, "").Return([]models.PlaceResult{
		place("b1", rating(4.2)), place("shared", rating(4.9)),
	}, nil)
	searcher.On("SearchNearby", mock.Anything, ikeja, "school", 2000, "").Return([]models.PlaceResult{}, nil)

	agg := NewAggregator(searcher, newCache(), Options{Types: []string{"hospital", "bank", "school"}})

	got, err := agg.Discover(context.Background(), ikeja, 2000, 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.PlaceID)
	}
	// per-type cap of 3 drops h3-dropped even though it rates highest
	assert.Equal(t, []string{"shared", "b1", "h1", "h2"}, ids)
	searcher.AssertNumberOfCalls(t, "SearchNearby", 3)
}

func TestAggregator_Discover_Invariants(t *testing.T) {
	types := []string{"hospital", "school", "bank", "church", "mosque"}
	searcher := new(MockNearbySearcher)
	for _, typ := range types {
		// every type also reports the same two popular places
		results := append(places(typ, 4), place("popular-a", rating(4.5)), place("popular-b", rating(4.4)))
		searcher.On("SearchNearby", mock.Anything, ikeja, typ, 1500, "").Return(results, nil)
	}

	for _, maxResults := range []int{1, 4, 7, 50} {
		agg := NewAggregator(searcher, newCache(), Options{Types: types, MaxPerType: 6})
		got, err := agg.Discover(context.Background(), ikeja, 1500, maxResults)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), maxResults)

		seen := map[string]bool{}
		for i, p := range got {
			assert.False(t, seen[p.PlaceID], "duplicate place %s", p.PlaceID)
			seen[p.PlaceID] = true
			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].RatingOrZero(), p.RatingOrZero())
			}
		}
	}
}

func TestAggregator_Discover_DefaultMaxResults(t *testing.T) {
	searcher := new(MockNearbySearcher)
	for _, typ := range DefaultTypes {
		searcher.On("SearchNearby", mock.Anything, ikeja, typ, 1000, "").Return(places(typ, 3), nil)
	}

	agg := NewAggregator(searcher, newCache(), Options{})
	got, err := agg.Discover(context.Background(), ikeja, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, got, 15)
	searcher.AssertNumberOfCalls(t, "SearchNearby", len(DefaultTypes))
}

func TestAggregator_Discover_PartialFailure(t *testing.T) {
	searcher := new(MockNearbySearcher)
	searcher.On("SearchNearby", mock.Anything, ikeja, "hospital", 1000, "").Return(nil, apperr.New(apperr.RateLimited, "quota"))
	searcher.On("SearchNearby", mock.Anything, ikeja, "bank", 1000, "").Return([]models.PlaceResult{place("b1", rating(4))}, nil)
	searcher.On("SearchNearby", mock.Anything, ikeja, "school", 1000, "").Return(nil, apperr.New(apperr.ProviderUnavailable, "timeout"))

	agg := NewAggregator(searcher, newCache(), Options{Types: []string{"hospital", "bank", "school"}})
	got, err := agg.Discover(context.Background(), ikeja, 1000, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].PlaceID)
}

func TestAggregator_Discover_AllFail(t *testing.T) {
	searcher := new(MockNearbySearcher)
	searcher.On("SearchNearby", mock.Anything, ikeja, "hospital", 1000, "").Return(nil, apperr.New(apperr.MissingCredentials, "no key"))
	searcher.On("SearchNearby", mock.Anything, ikeja, "bank", 1000, "").Return(nil, apperr.New(apperr.MissingCredentials, "no key"))

	agg := NewAggregator(searcher, newCache(), Options{Types: []string{"hospital", "bank"}})
	got, err := agg.Discover(context.Background(), ikeja, 1000, 5)
	assert.Nil(t, got)
	assert.True(t, apperr.Is(err, apperr.MissingCredentials))
}

func TestAggregator_Discover_CachesByQuantizedCoordinates(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := cache.New(cache.NewMemoryStore(), time.Minute, cache.WithClock(clock))

	searcher := new(MockNearbySearcher)
	searcher.On("SearchNearby", mock.Anything, mock.Anything, "hospital", 1000, "").Return([]models.PlaceResult{place("h1", rating(4))}, nil)

	agg := NewAggregator(searcher, c, Options{Types: []string{"hospital"}, CacheTTL: 5 * time.Minute})
	ctx := context.Background()

	_, err := agg.Discover(ctx, models.Coordinates{Latitude: 6.601802, Longitude: 3.351503}, 1000, 15)
	require.NoError(t, err)
	_, err = agg.Discover(ctx, models.Coordinates{Latitude: 6.601807, Longitude: 3.351501}, 1000, 15)
	require.NoError(t, err)
	searcher.AssertNumberOfCalls(t, "SearchNearby", 1)

	mu.Lock()
	now = now.Add(5 * time.Minute)
	mu.Unlock()

	_, err = agg.Discover(ctx, models.Coordinates{Latitude: 6.601802, Longitude: 3.351503}, 1000, 15)
	require.NoError(t, err)
	searcher.AssertNumberOfCalls(t, "SearchNearby", 2)
}

// countingSearcher tracks how many calls are in flight at once.
type countingSearcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *countingSearcher) SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []models.PlaceResult{{PlaceID: placeType, Name: placeType}}, nil
}

func TestAggregator_Discover_BoundsConcurrency(t *testing.T) {
	searcher := &countingSearcher{}
	agg := NewAggregator(searcher, newCache(), Options{BatchSize: 2})

	got, err := agg.Discover(context.Background(), ikeja, 3000, 100)
	require.NoError(t, err)
	assert.Len(t, got, len(DefaultTypes))
	assert.Equal(t, int32(len(DefaultTypes)), searcher.calls.Load())
	assert.LessOrEqual(t, searcher.peak.Load(), int32(2))
}
