package repository

import (
	"context"
	"fmt"

	"mecabal-location/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the neighborhoods reference table.
const Schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS neighborhoods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		radius_km DOUBLE PRECISION NOT NULL CHECK (radius_km > 0),
		center GEOGRAPHY(POINT, 4326) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS neighborhoods_center_idx ON neighborhoods USING GIST (center);
`

// NeighborhoodRepository reads neighborhood reference data from PostgreSQL
type NeighborhoodRepository struct {
	db *pgxpool.Pool
}

// NewNeighborhoodRepository creates a new PostgreSQL neighborhood repository
func NewNeighborhoodRepository(db *pgxpool.Pool) *NeighborhoodRepository {
	return &NeighborhoodRepository{db: db}
}

// FindCandidates returns neighborhoods whose center lies within radius_km * radiusMultiplier of coords
func (r *NeighborhoodRepository) FindCandidates(ctx context.Context, coords models.Coordinates, radiusMultiplier float64) ([]models.Neighborhood, error) {
	sql := `
		SELECT
			id,
			name,
			type,
			ST_Y(center::geometry) as latitude,
			ST_X(center::geometry) as longitude,
			radius_km
		FROM neighborhoods
		WHERE ST_DWithin(center, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, radius_km * 1000 * $3)
		ORDER BY center <-> ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, id
	`

	rows, err := r.db.Query(ctx, sql, coords.Latitude, coords.Longitude, radiusMultiplier)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute candidate query: %w", err)
	}
	return collectNeighborhoods(rows)
}

// ListAll returns every neighborhood ordered by id
func (r *NeighborhoodRepository) ListAll(ctx context.Context) ([]models.Neighborhood, error) {
	sql := `
		SELECT
			id,
			name,
			type,
			ST_Y(center::geometry) as latitude,
			ST_X(center::geometry) as longitude,
			radius_km
		FROM neighborhoods
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute list query: %w", err)
	}
	return collectNeighborhoods(rows)
}

func collectNeighborhoods(rows pgx.Rows) ([]models.Neighborhood, error) {
	defer rows.Close()

	neighborhoods := []models.Neighborhood{}
	for rows.Next() {
		var n models.Neighborhood
		err := rows.Scan(
			&n.ID,
			&n.Name,
			&n.Type,
			&n.Center.Latitude,
			&n.Center.Longitude,
			&n.RadiusKm,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan neighborhood: %w", err)
		}
		neighborhoods = append(neighborhoods, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return neighborhoods, nil
}
