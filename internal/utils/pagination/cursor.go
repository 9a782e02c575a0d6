package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor is the opaque pagination state we encode/decode.
// Interest ids grow monotonically, so the last seen id alone is a stable cursor
// for newest-first listings.
type Cursor struct {
	LastID uint64 `json:"last_id"`
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// Page trims a limit+1 result set to limit items and builds the next token
// from the last kept item when more rows exist.
func Page[T any](items []T, limit int, idOf func(T) uint64) ([]T, *string) {
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	items = items[:limit]
	token, _ := Encode(Cursor{LastID: idOf(items[limit-1])})
	return items, &token
}
