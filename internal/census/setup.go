package census

import (
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Init(d *gorm.DB, log *zap.Logger) error {
	if err := db.EnsureSchema(d, "census"); err != nil {
		return fmt.Errorf("ensure schema census: %w", err)
	}

	if err := d.AutoMigrate(&RaceStats{}, &Households{}); err != nil {
		return fmt.Errorf("auto-migrate census tables: %w", err)
	}

	log.Info("census module initialized")
	return nil
}
