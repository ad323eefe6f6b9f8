package census

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads tract-level census data.
type Store interface {
	RaceByCounty(ctx context.Context, stateFIPS, countyFIPS string) ([]RaceStats, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// RaceByCounty returns race stats for every tract in a county, ordered by
// geoid.
func (s *GormStore) RaceByCounty(ctx context.Context, stateFIPS, countyFIPS string) ([]RaceStats, error) {
	query := `
		SELECT rs.*
		FROM census.race_stats rs
		JOIN geo.geos g ON g.geoid = rs.geoid
		WHERE g.state = ? AND g.county = ?
		ORDER BY rs.geoid
	`

	stats := []RaceStats{}
	if err := s.db.WithContext(ctx).Raw(query, stateFIPS, countyFIPS).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("race by county query failed: %w", err)
	}
	return stats, nil
}

// UpsertRaceStats inserts or replaces rows by geoid; percentages are
// recomputed by the save hook.
func (s *GormStore) UpsertRaceStats(ctx context.Context, rows []RaceStats, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return upsert(s.db.WithContext(ctx), &rows, batchSize)
}

func (s *GormStore) UpsertHouseholds(ctx context.Context, rows []Households, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return upsert(s.db.WithContext(ctx), &rows, batchSize)
}

func upsert(tx *gorm.DB, rows any, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "geoid"}},
		UpdateAll: true,
	}).CreateInBatches(rows, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert census rows: %w", err)
	}
	return nil
}
