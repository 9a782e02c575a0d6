// Package testutil holds shared fixtures for package-level tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/metrics"
)

var externalSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the :memory: database shared across goroutines.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	require.NoError(t, err, "failed to open sqlite")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database), "failed to migrate")
	return database
}

// NewRedis starts a miniredis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromAddr(mr.Addr())
	t.Cleanup(func() { _ = rc.Close() })

	require.NoError(t, rc.Ping(context.Background()))
	return rc, mr
}

// NewAppContext wires a full AppContext over fresh SQLite and miniredis
// instances. The dedupe window is disabled so every write is observable.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	cfg := config.New()
	cfg.Matching.DedupeWindow = 0
	rc, mr := NewRedis(t)
	return app.New(cfg, NewDB(t), rc, logger.Discard(), metrics.New()), mr
}

// Affiliation inserts an active affiliation.
func Affiliation(t *testing.T, gdb *gorm.DB, name string) db.Affiliation {
	t.Helper()
	aff := db.Affiliation{Name: name, ShortName: name, Active: true}
	require.NoError(t, gdb.Create(&aff).Error)
	return aff
}

// ProfileOption tweaks a Profile fixture before insert.
type ProfileOption func(*db.Profile)

func WithName(name string) ProfileOption { return func(p *db.Profile) { p.Name = name } }

func LastActive(ago time.Duration) ProfileOption {
	return func(p *db.Profile) { p.LastActive = time.Now().UTC().Add(-ago) }
}

func Banned() ProfileOption    { return func(p *db.Profile) { p.Banned = true } }
func Synthetic() ProfileOption { return func(p *db.Profile) { p.Synthetic = true } }
func Hidden() ProfileOption    { return func(p *db.Profile) { p.Searchable = false } }
func Inactive() ProfileOption  { return func(p *db.Profile) { p.Active = false } }
func Unregistered() ProfileOption {
	return func(p *db.Profile) { p.Registered = false }
}
func Spotlighted() ProfileOption { return func(p *db.Profile) { p.Spotlighted = true } }

// Profile inserts a registered, searchable profile in the given affiliation.
func Profile(t *testing.T, gdb *gorm.DB, affiliationID uint64, gender, lookingFor db.Gender, opts ...ProfileOption) db.Profile {
	t.Helper()

	n := externalSeq.Add(1)
	p := db.Profile{
		ExternalID:    1_000_000 + n,
		Name:          fmt.Sprintf("Person %d", n),
		Age:           21,
		Gender:        gender,
		LookingFor:    lookingFor,
		AffiliationID: affiliationID,
		Active:        true,
		Registered:    true,
		Searchable:    true,
		LastActive:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&p)
	}

	// Create skips zero values of columns with a default and reads the
	// defaults back into p, so the flags are taken from a copy.
	flags := p
	require.NoError(t, gdb.Create(&p).Error)
	require.NoError(t, gdb.Model(&db.Profile{}).Where("id = ?", p.ID).Updates(map[string]any{
		"active":      flags.Active,
		"banned":      flags.Banned,
		"registered":  flags.Registered,
		"searchable":  flags.Searchable,
		"synthetic":   flags.Synthetic,
		"spotlighted": flags.Spotlighted,
		"last_active": flags.LastActive,
	}).Error)
	p.Active = flags.Active
	p.Banned = flags.Banned
	p.Registered = flags.Registered
	p.Searchable = flags.Searchable
	p.Synthetic = flags.Synthetic
	p.Spotlighted = flags.Spotlighted
	return p
}

// MatchRows counts the stored match rows of {a, b}.
func MatchRows(t *testing.T, gdb *gorm.DB, a, b uint64) int64 {
	t.Helper()
	low, high := db.CanonicalPair(a, b)
	var n int64
	require.NoError(t, gdb.Model(&db.Match{}).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Count(&n).Error)
	return n
}
