package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Collection names used by the project database.
const (
	Resources      = "resources"
	PostProcessed  = "postProcessed"
	Episodes       = "episodes"
	Assets         = "assets"
	ActPoints      = "actPoints"
	CodeReleases   = "codeReleases"
	MediaReleases  = "mediaReleases"
	BundleReleases = "bundleReleases"
)

// ErrReadOnly is returned when a mutation is attempted on a snapshot store.
var ErrReadOnly = errors.New("document store is read-only")

// Store manages JSON document collections backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Open initializes or connects to the project database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenReadOnly opens an existing database without applying migrations and
// rejects every mutation.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat snapshot db: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma query_only: %w", err)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store rejects mutations.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// Find returns the raw bodies of every document in collection matching all
// predicates, in insertion order.
func (s *Store) Find(ctx context.Context, collection string, preds ...Predicate) ([]json.RawMessage, error) {
	where, args := whereClause(preds)
	query := "SELECT body FROM documents WHERE collection = ?" + where + " ORDER BY rowid"
	rows, err := s.db.QueryContext(ctx, query, append([]any{collection}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

// Get returns the raw body of one document, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(body), nil
}

// Count returns the number of documents in collection matching all predicates.
func (s *Store) Count(ctx context.Context, collection string, preds ...Predicate) (int, error) {
	where, args := whereClause(preds)
	var count int
	query := "SELECT COUNT(1) FROM documents WHERE collection = ?" + where
	if err := s.db.QueryRowContext(ctx, query, append([]any{collection}, args...)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return count, nil
}

// Put inserts or replaces the document stored under (collection, id). A
// replaced document keeps its original position in insertion order.
func (s *Store) Put(ctx context.Context, collection, id string, doc any) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if id == "" {
		return fmt.Errorf("put %s: empty id", collection)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection,
		id,
		string(body),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Insert stores a new document and fails if the id is already taken.
func (s *Store) Insert(ctx context.Context, collection, id string, doc any) error {
	if s.readOnly {
		return ErrReadOnly
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(
		ctx,
		"INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)",
		collection,
		id,
		string(body),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Remove deletes the listed documents and reports how many existed.
func (s *Store) Remove(ctx context.Context, collection string, ids ...string) (int64, error) {
	if s.readOnly {
		return 0, ErrReadOnly
	}
	var removed int64
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
		if err != nil {
			return removed, fmt.Errorf("remove %s/%s: %w", collection, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("rows affected: %w", err)
		}
		removed += n
	}
	return removed, nil
}

// NextID issues the next value of a monotonically increasing counter,
// starting at 1.
func (s *Store) NextID(ctx context.Context, counter string) (int64, error) {
	if s.readOnly {
		return 0, ErrReadOnly
	}
	var value int64
	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO counters (name, value) VALUES (?, 1)
         ON CONFLICT(name) DO UPDATE SET value = value + 1
         RETURNING value`,
		counter,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", counter, err)
	}
	return value, nil
}

// Backup writes a consistent copy of the database to dest. dest must not exist.
func (s *Store) Backup(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure backup directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("remove stale backup: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return rollbackJournal(ctx, dest)
}

// rollbackJournal switches a copied database out of WAL mode so it can be
// opened read-only without sidecar files.
func rollbackJournal(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return fmt.Errorf("set backup journal mode: %w", err)
	}
	return nil
}
