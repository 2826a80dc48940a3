package store

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// DeriveID returns a stable, content-addressed ID for a row identified by
// parts (its natural key). The ingestor never asks the store for a
// generated primary key: deriving IDs client-side makes re-ingesting the
// same repository idempotent (the clear-then-append lifecycle in spec.md
// §3 depends on FileAction/Commit identity surviving a re-run unchanged).
func DeriveID(parts ...string) string {
	h := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}
