package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	dirMode = 0o700

	// defaultQueryLimit caps local search results.
	defaultQueryLimit = 50
)

// SQLiteSink is a local SQLite-backed search index using FTS5. Name and
// content are the indexed columns; everything else is carried for display.
type SQLiteSink struct {
	db *sql.DB
}

// Open opens (or creates) the index database at path.
func Open(path string) (*SQLiteSink, error) {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if cleaned == "" || cleaned == "." {
		return nil, errors.New("missing index db path")
	}
	if err := os.MkdirAll(filepath.Dir(cleaned), dirMode); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", cleaned)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteSink{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS documents USING fts5(
	name,
	content,
	doc_id UNINDEXED,
	domain UNINDEXED,
	path UNINDEXED,
	created_at UNINDEXED
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init index schema: %w", err)
	}
	return nil
}

// DeleteAll removes every indexed item for a domain. A rebuild calls this
// first so documents deleted on the remote do not linger in the index.
func (s *SQLiteSink) DeleteAll(ctx context.Context, domain string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE domain = ?`, domain); err != nil {
		return fmt.Errorf("delete indexed items for %s: %w", domain, err)
	}
	return nil
}

// AddBatch inserts one crawled directory's worth of items in a single
// transaction. Existing items with the same derived ID are replaced.
func (s *SQLiteSink) AddBatch(ctx context.Context, domain string, items []Entry) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range items {
		item := &items[i]
		id := ItemID(domain, item.Path)

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE doc_id = ?`, id); err != nil {
			return fmt.Errorf("replace indexed item %s: %w", item.Path, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (name, content, doc_id, domain, path, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.Name, item.Content, id, domain, item.Path,
			item.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("insert indexed item %s: %w", item.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

// Query runs a full-text search over the indexed documents of a domain.
// Each whitespace-separated term is matched as a phrase; multiple terms
// must all match.
func (s *SQLiteSink) Query(ctx context.Context, domain, query string) ([]Entry, error) {
	match := buildMatch(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, path, content, created_at
		 FROM documents
		 WHERE documents MATCH ? AND domain = ?
		 ORDER BY rank
		 LIMIT ?`,
		match, domain, defaultQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Entry
	for rows.Next() {
		var entry Entry
		var createdAt int64
		if err := rows.Scan(&entry.Name, &entry.Path, &entry.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index rows: %w", err)
	}

	return results, nil
}

// Count returns the number of indexed items for a domain.
func (s *SQLiteSink) Count(ctx context.Context, domain string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE domain = ?`, domain).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count indexed items: %w", err)
	}
	return count, nil
}

// buildMatch quotes each term so user input cannot break the FTS query
// syntax.
func buildMatch(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
