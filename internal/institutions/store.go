package institutions

import (
	"context"
	"errors"
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/textfold"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const SearchLimit = 25

type Store interface {
	ByLender(ctx context.Context, lender string) (*Institution, error)
	Search(ctx context.Context, q string, limit int) ([]Institution, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ByLender(ctx context.Context, lender string) (*Institution, error) {
	var inst Institution
	if err := s.db.WithContext(ctx).First(&inst, "lender = ?", lender).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

// Search matches the folded name anywhere, listing prefix matches first.
func (s *GormStore) Search(ctx context.Context, q string, limit int) ([]Institution, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}

	results := []Institution{}
	err := s.db.WithContext(ctx).
		Where("search_name LIKE ?", textfold.LikeContains(q)).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN search_name LIKE ? THEN 0 ELSE 1 END, name",
			Vars: []any{textfold.LikePrefix(q)},
		}}).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("institution search failed: %w", err)
	}
	return results, nil
}

func (s *GormStore) Upsert(ctx context.Context, rows []Institution, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lender"}},
		UpdateAll: true,
	}).CreateInBatches(rows, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert institutions: %w", err)
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
