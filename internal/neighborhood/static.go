package neighborhood

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"mecabal-location/internal/geo"
	"mecabal-location/internal/models"
)

// StaticRepository serves neighborhoods held in memory.
type StaticRepository struct {
	hoods []models.Neighborhood
}

// NewStaticRepository validates and wraps hoods.
func NewStaticRepository(hoods []models.Neighborhood) (*StaticRepository, error) {
	for _, n := range hoods {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("neighborhood: %w: %v", ErrMalformedNeighborhood, err)
		}
	}
	return &StaticRepository{hoods: append([]models.Neighborhood(nil), hoods...)}, nil
}

// LoadStaticRepository reads a JSON array of neighborhoods from path.
func LoadStaticRepository(path string) (*StaticRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("neighborhood: reading %s: %w", path, err)
	}
	var hoods []models.Neighborhood
	if err := json.Unmarshal(raw, &hoods); err != nil {
		return nil, fmt.Errorf("neighborhood: decoding %s: %w", path, err)
	}
	return NewStaticRepository(hoods)
}

// FindCandidates returns the neighborhoods within radiusKm × radiusMultiplier of coords.
func (r *StaticRepository) FindCandidates(_ context.Context, coords models.Coordinates, radiusMultiplier float64) ([]models.Neighborhood, error) {
	var out []models.Neighborhood
	for _, n := range r.hoods {
		if geo.DistanceKm(coords, n.Center) <= n.RadiusKm*radiusMultiplier {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListAll returns every neighborhood.
func (r *StaticRepository) ListAll(context.Context) ([]models.Neighborhood, error) {
	return append([]models.Neighborhood(nil), r.hoods...), nil
}
