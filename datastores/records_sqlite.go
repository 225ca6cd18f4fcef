package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/oaiiae/huma-phonebook/datastores/migrations"
)

// SQLite implements [RecordStore] with one row per collection.
// A multi-document Save runs in a single transaction.
type SQLite struct {
	db *sql.DB
}

var _ RecordStore = (*SQLite)(nil)

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping db: %w", ErrUnavailable, err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &SQLite{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, collection string) ([]byte, error) {
	document, err := s.load(ctx, collection)
	if !errors.Is(err, sql.ErrNoRows) {
		return document, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, document, updated_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		collection, string(emptyDocument), time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%w: init %s: %w", ErrUnavailable, collection, err)
	}
	return s.load(ctx, collection)
}

// load returns sql.ErrNoRows unwrapped for a collection never written.
func (s *SQLite) load(ctx context.Context, collection string) ([]byte, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM collections WHERE name = ?`, collection).Scan(&document)
	switch {
	case err == nil:
		return []byte(document), nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: load %s: %w", ErrUnavailable, collection, err)
	}
}

func (s *SQLite) Save(ctx context.Context, docs ...Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, d := range docs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (name, document, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				document = excluded.document,
				updated_at = excluded.updated_at`,
			d.Collection, string(d.Data), now)
		if err != nil {
			return fmt.Errorf("%w: save %s: %w", ErrUnavailable, d.Collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
