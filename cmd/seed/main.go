package main

import (
	"flag"
	"os"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	minimal := flag.Bool("minimal", false, "seed only one affiliation and three profiles")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	seed := db.SeedTestData
	if *minimal {
		seed = db.SeedMinimalTestData
	}
	if err := seed(database); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed", "minimal", *minimal)
}
