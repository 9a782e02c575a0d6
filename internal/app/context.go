package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/matching"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/session"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Events     *events.RedisBus
	Engine     *matching.Engine
	Sessions   *session.Store
}

// New creates a new AppContext and wires the matching engine, the event bus
// and the session store on top of the given connections.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, m *metrics.Metrics) *AppContext {
	if m == nil {
		m = metrics.New()
	}
	bus := events.NewRedisBus(rdb.Client, events.DefaultChannel)

	engine := matching.NewEngine(matching.Deps{
		DB:      db,
		Cache:   rdb,
		Events:  bus,
		Metrics: m,
		Logger:  logger,
	}, matching.OptionsFromConfig(cfg))

	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Metrics:    m,
		Events:     bus,
		Engine:     engine,
		Sessions:   session.NewStore(rdb, cfg.Session.TTL),
	}
}
