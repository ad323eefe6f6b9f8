package hmda

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// OriginationRow is the number of originations a lender made in one tract,
// with that tract's household count when known.
type OriginationRow struct {
	GeoID         string `gorm:"column:geoid"`
	Volume        int    `gorm:"column:volume"`
	NumHouseholds *int   `gorm:"column:num_households"`
}

type Store interface {
	LoanOriginations(ctx context.Context, stateFIPS, countyFIPS, lender string) ([]OriginationRow, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LoanOriginations counts a lender's records per tract in one county. Year
// is not filtered.
func (s *GormStore) LoanOriginations(ctx context.Context, stateFIPS, countyFIPS, lender string) ([]OriginationRow, error) {
	query := `
		SELECT r.geoid, COUNT(r.geoid) AS volume, h.total AS num_households
		FROM hmda.records r
		LEFT JOIN census.households h ON h.geoid = r.geoid
		WHERE r.countyfp = ?
		  AND r.lender = ?
		  AND r.statefp = ?
		  AND r.action_taken <= ?
		GROUP BY r.geoid, h.total
		ORDER BY r.geoid
	`

	rows := []OriginationRow{}
	err := s.db.WithContext(ctx).
		Raw(query, countyFIPS, lender, stateFIPS, maxCountedAction).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loan originations query failed: %w", err)
	}
	return rows, nil
}

// Insert appends LAR rows in batches. Lender and geoid are derived by the
// save hook.
func (s *GormStore) Insert(ctx context.Context, records []Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, batchSize).Error; err != nil {
		return fmt.Errorf("insert hmda records: %w", err)
	}
	return nil
}
