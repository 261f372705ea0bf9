package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mecabal-location/internal/config"
	"mecabal-location/internal/logger"
	"mecabal-location/internal/models"
	"mecabal-location/internal/repository"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var header = []string{"id", "name", "type", "latitude", "longitude", "radius_km"}

func main() {
	file := flag.String("file", "", "Path to the neighborhoods CSV file to import")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}
	if cfg.DBSource == "" {
		log.Fatal().Msg("DB_SOURCE is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}
	log.Info().Int("records", len(records)).Msg("parsed neighborhoods")

	db, err := sql.Open("postgres", cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open database")
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, repository.Schema); err != nil {
		log.Fatal().Err(err).Msg("cannot create schema")
	}

	if err := replaceNeighborhoods(ctx, db, records); err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	if err := verifyImport(ctx, db, len(records)); err != nil {
		log.Fatal().Err(err).Msg("import verification failed")
	}

	log.Info().Int("records", len(records)).Msg("import finished")
}

// parseCSV reads id,name,type,latitude,longitude,radius_km rows after a header line.
// Every row must describe a valid neighborhood; ids must be unique.
func parseCSV(r io.Reader) ([]models.Neighborhood, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	got, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(got) < len(header) {
		return nil, fmt.Errorf("invalid header: expected %s", strings.Join(header, ","))
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(got[i]), col) {
			return nil, fmt.Errorf("invalid header column %d: expected %q, got %q", i+1, col, got[i])
		}
	}

	seen := make(map[string]int)
	var records []models.Neighborhood
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		n, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if first, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate id %q, first seen on line %d", line, n.ID, first)
		}
		seen[n.ID] = line
		records = append(records, n)
	}

	return records, nil
}

func parseRecord(record []string) (models.Neighborhood, error) {
	var n models.Neighborhood

	lat, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return n, fmt.Errorf("invalid latitude: %s", record[3])
	}
	lon, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return n, fmt.Errorf("invalid longitude: %s", record[4])
	}
	radius, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return n, fmt.Errorf("invalid radius_km: %s", record[5])
	}

	n = models.Neighborhood{
		ID:       strings.TrimSpace(record[0]),
		Name:     strings.TrimSpace(record[1]),
		Type:     models.NeighborhoodType(strings.TrimSpace(record[2])),
		Center:   models.Coordinates{Latitude: lat, Longitude: lon},
		RadiusKm: radius,
	}
	if err := n.Validate(); err != nil {
		return n, err
	}
	return n, nil
}

// replaceNeighborhoods swaps the table contents for records in one transaction.
func replaceNeighborhoods(ctx context.Context, db *sql.DB, records []models.Neighborhood) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "TRUNCATE neighborhoods"); err != nil {
		return fmt.Errorf("failed to truncate neighborhoods: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("neighborhoods", "id", "name", "type", "radius_km", "center"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, n := range records {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, string(n.Type), n.RadiusKm, ewkt(n.Center)); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy %s: %w", n.ID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	return tx.Commit()
}

// ewkt renders a point in PostGIS extended WKT: lon lat order.
func ewkt(c models.Coordinates) string {
	return fmt.Sprintf("SRID=4326;POINT(%s %s)",
		strconv.FormatFloat(c.Longitude, 'f', -1, 64),
		strconv.FormatFloat(c.Latitude, 'f', -1, 64))
}

func verifyImport(ctx context.Context, db *sql.DB, expectedCount int) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM neighborhoods").Scan(&count); err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if count != expectedCount {
		return fmt.Errorf("record count mismatch: expected %d, got %d", expectedCount, count)
	}

	if count == 0 {
		return nil
	}

	// Check a sample center
	var center string
	if err := db.QueryRowContext(ctx, "SELECT ST_AsText(center) FROM neighborhoods ORDER BY id LIMIT 1").Scan(&center); err != nil {
		return fmt.Errorf("failed to check center: %w", err)
	}

	log.Info().Str("center", center).Msg("sample center")
	return nil
}
