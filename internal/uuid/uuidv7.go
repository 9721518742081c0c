// Package uuid generates time-ordered identifiers for request ids and for
// the import hashes of manually entered transactions.
package uuid

import (
	"strings"

	googleuuid "github.com/google/uuid"
)

// ManualHashPrefix marks import hashes of transactions that were not imported
// from a bank statement.
const ManualHashPrefix = "manual_"

// New generates a new UUIDv7. UUIDv7 is time-ordered, so ids created later
// sort after earlier ones. It falls back to a random UUIDv4 when the clock
// based generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// ManualImportHash returns a unique import hash for a manual transaction.
func ManualImportHash() string {
	return ManualHashPrefix + strings.ReplaceAll(New(), "-", "")[:24]
}

// IsManualImportHash reports whether hash was produced by ManualImportHash.
func IsManualImportHash(hash string) bool {
	return strings.HasPrefix(hash, ManualHashPrefix)
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
