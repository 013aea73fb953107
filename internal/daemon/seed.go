package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/N3minator/TG-BOT/internal/config"
)

// seed applies storage-level settings after migration. No rows are ever
// seeded: roles are created in chat and identities are observed from
// the platform.
func seed(cfg *config.Config, db *gorm.DB) {
	if cfg.DB.GormEngine == "" || cfg.DB.GormEngine == "sqlite" {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			log.Warn().Err(err).Msg("enabling WAL journal mode failed")
		}
	}
}
