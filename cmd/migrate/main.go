// Command migrate applies or rolls back the embedded SQL migrations.
//
//	migrate up
//	migrate down [steps]
//	migrate version
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	if err := run(cfg, flag.Args()); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate up | down [steps] | version")
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DB.DSN), db.GormConfig())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	switch args[0] {
	case "up":
		return db.ApplyMigrations(sqlDB)
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[1], err)
			}
		}
		if err := db.RollbackMigrations(sqlDB, steps); err != nil {
			return err
		}
		logger.Info("migrations rolled back", "steps", steps)
		return nil
	case "version":
		v, dirty, err := db.MigrationVersion(sqlDB)
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
