package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// notFound turns gorm.ErrRecordNotFound into the domain NotFound error for subject.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound(format, args...)
	}
	return err
}

var canonicalPair = db.CanonicalPair

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
