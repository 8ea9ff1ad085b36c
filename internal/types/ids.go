package types

import (
	"time"

	"github.com/google/uuid"
)

// SheetID represents a UUIDv7 stylesheet identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type SheetID string

// RuleID represents a UUIDv7 compiled-rule identifier.
type RuleID string

// NewSheetID generates a UUIDv7 stylesheet identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSheetID() SheetID {
	return SheetID(uuid.Must(uuid.NewV7()).String())
}

// NewRuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// ParseSheetID validates and converts a string to SheetID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the catalog.
func ParseSheetID(s string) (SheetID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return SheetID(s), nil
}

// SheetIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Enables time-based catalog queries without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func SheetIDTime(id SheetID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
