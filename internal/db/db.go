package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/models"
)

// Open connects to the configured database. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if cfg.Driver == "sqlite" {
		// sqlite allows one writer; a single connection keeps the active-order
		// insert race deterministic instead of failing with "database is locked".
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sql.DB")
		}
		sqlDB.SetMaxOpenConns(1)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
	}
	return conn, nil
}

// OneActiveOrderIndex guarantees at most one active order per table.
const OneActiveOrderIndex = "idx_orders_one_active_per_table"

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	err := conn.Exec("CREATE UNIQUE INDEX IF NOT EXISTS " + OneActiveOrderIndex +
		" ON orders (table_id) WHERE is_active").Error
	if err != nil {
		return errors.Wrap(err, "failed to create active order index")
	}
	log.Debug("database migrated")
	return nil
}
