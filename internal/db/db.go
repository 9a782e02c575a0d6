package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/logger"
)

// GormConfig is shared by the MySQL connection and the sqlite test databases.
//   - UTC timestamps truncated to milliseconds (MySQL DATETIME(3) precision).
//   - TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(0),
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}
}

// NewDB initializes the database connection using DSN from config.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if cfg.DB.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := ApplyMigrations(sqlDB); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate keeps the schema in sync with the models. Used in development
// and by the sqlite test databases; production runs the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
