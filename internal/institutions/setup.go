package institutions

import (
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Init(d *gorm.DB, log *zap.Logger) error {
	if err := db.EnsureSchema(d, "institutions"); err != nil {
		return fmt.Errorf("ensure schema institutions: %w", err)
	}

	if err := d.AutoMigrate(&Institution{}); err != nil {
		return fmt.Errorf("auto-migrate institutions tables: %w", err)
	}

	log.Info("institutions module initialized")
	return nil
}
