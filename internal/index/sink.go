// Package index provides the local search index the crawler feeds: a sink
// interface consumed by the crawler, and a SQLite FTS implementation of it.
package index

import (
	"context"
	"crypto/sha1" //nolint:gosec // identifier derivation, not security
	"encoding/hex"
	"time"
)

// Entry is one searchable record derived from one document.
type Entry struct {
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
}

// Sink consumes crawler output. A full rebuild calls DeleteAll for the
// application's domain first, then AddBatch once per crawled directory.
type Sink interface {
	DeleteAll(ctx context.Context, domain string) error
	AddBatch(ctx context.Context, domain string, items []Entry) error
}

// ItemID derives the stable external identifier for an indexed document.
// It depends only on domain and path, so repeated rebuilds of the same
// tree produce identical identifiers.
func ItemID(domain, path string) string {
	sum := sha1.Sum([]byte(domain + "\x00" + path)) //nolint:gosec // see above
	return hex.EncodeToString(sum[:])
}
