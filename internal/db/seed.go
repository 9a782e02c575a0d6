package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/logger"
)

var seedTables = []string{"reports", "viewed_marks", "matches", "interests", "profiles", "affiliations"}

// reset clears all tables (children first) and resets sequences.
func reset(db *gorm.DB) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range seedTables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range seedTables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}
	return nil
}

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 3 affiliations and 30 profiles (10 per affiliation, mixed genders and
//     preferences, two synthetic profiles per affiliation).
//  3. Generates interests inside each affiliation with ~70% likes; every 3rd
//     compatible pair also gets the reciprocal like and a canonical match row.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := reset(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	affiliations := []Affiliation{
		{Name: "North State University", ShortName: "NSU", City: "Northville", Active: true},
		{Name: "Institute of Applied Arts", ShortName: "IAA", City: "Southport", Active: true},
		{Name: "Polytechnic College", ShortName: "PTC", City: "Eastbrook", Active: true},
	}
	if err := db.Create(&affiliations).Error; err != nil {
		return fmt.Errorf("failed to seed affiliations: %w", err)
	}

	preferences := []Gender{GenderFemale, GenderMale, GenderAny}
	profiles := make([]Profile, 0, 30)
	for i := 0; i < 30; i++ {
		aff := affiliations[i/10]
		gender := GenderMale
		if i%2 == 1 {
			gender = GenderFemale
		}
		lookingFor := preferences[r.Intn(len(preferences))]
		if lookingFor != GenderAny && r.Intn(100) < 80 {
			// mostly opposite-gender preferences
			lookingFor = GenderFemale
			if gender == GenderFemale {
				lookingFor = GenderMale
			}
		}
		profiles = append(profiles, Profile{
			ExternalID:    int64(100000 + i),
			Name:          fmt.Sprintf("User %d", i+1),
			Age:           18 + r.Intn(10),
			Gender:        gender,
			LookingFor:    lookingFor,
			Bio:           "seeded profile",
			AffiliationID: aff.ID,
			Active:        true,
			Registered:    true,
			Searchable:    true,
			Synthetic:     i%10 >= 8,
			LastActive:    time.Now().UTC().Add(-time.Duration(r.Intn(500)) * time.Hour),
		})
	}
	if err := db.Create(&profiles).Error; err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}
	logger.Info("seeded profiles", "count", len(profiles))

	counter, interests, matches := 0, 0, 0
	for _, actor := range profiles {
		for j := 0; j < 6; j++ {
			recipient := profiles[(actor.ID-1)/10*10+uint64(r.Intn(10))]
			if recipient.ID == actor.ID || !compatible(actor, recipient) {
				continue
			}

			liked := r.Intn(100) < 70
			rows := []Interest{{FromID: actor.ID, ToID: recipient.ID, Positive: liked}}
			if counter%3 == 0 {
				rows[0].Positive = true
				rows = append(rows, Interest{FromID: recipient.ID, ToID: actor.ID, Positive: true})
			}
			if err := db.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to seed interest: %w", err)
			}
			interests += len(rows)

			if len(rows) == 2 {
				low, high := CanonicalPair(actor.ID, recipient.ID)
				res := db.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&Match{UserLowID: low, UserHighID: high, Active: true})
				if res.Error != nil {
					return fmt.Errorf("failed to seed match: %w", res.Error)
				}
				matches += int(res.RowsAffected)
			}
			counter++
		}
	}
	logger.Info("seeded interests", "interests", interests, "matches", matches)

	return nil
}

// SeedMinimalTestData inserts a tiny deterministic dataset:
// one affiliation, a male viewer looking for women and two women.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := reset(db); err != nil {
		return err
	}

	aff := Affiliation{ID: 1, Name: "Test University", ShortName: "TU", Active: true}
	if err := db.Create(&aff).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	profiles := []Profile{
		{ID: 1, ExternalID: 1001, Name: "Viewer", Age: 20, Gender: GenderMale, LookingFor: GenderFemale, AffiliationID: 1, Active: true, Registered: true, Searchable: true, LastActive: now},
		{ID: 2, ExternalID: 1002, Name: "Alice", Age: 21, Gender: GenderFemale, LookingFor: GenderAny, AffiliationID: 1, Active: true, Registered: true, Searchable: true, LastActive: now.Add(-time.Hour)},
		{ID: 3, ExternalID: 1003, Name: "Beth", Age: 22, Gender: GenderFemale, LookingFor: GenderMale, AffiliationID: 1, Active: true, Registered: true, Searchable: true, LastActive: now.Add(-2 * time.Hour)},
	}
	return db.Create(&profiles).Error
}

// CanonicalPair orders two ids so the smaller comes first.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

func compatible(a, b Profile) bool {
	return a.AffiliationID == b.AffiliationID &&
		a.LookingFor.Accepts(b.Gender) &&
		b.LookingFor.Accepts(a.Gender)
}
