// Package tablestore persists mortality tables in PostgreSQL or SQLite so
// published bases are imported once and shared by every valuation run.
package tablestore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/parcr/lifeactuary/lifetable"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no stored table carries the requested name.
var ErrNotFound = errors.New("table not found")

// Meta describes a stored table without its rates.
type Meta struct {
	ID          string
	Name        string
	ContentType string
	Reference   string
	MinAge      int
	Radix       float64
	// PublishedOn is the publication date when the source reports one.
	PublishedOn civil.Date
	CreatedAt   time.Time
}

// Store wraps a SQL database holding mortality tables.
type Store struct {
	db     *sql.DB
	driver string
	logger *log.Entry
}

// Open connects using driver "sqlite3" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("tablestore: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("tablestore: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// One connection keeps :memory: databases coherent across the pool.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tablestore: ping %s: %w", driver, err)
	}

	return &Store{
		db:     db,
		driver: driver,
		logger: log.WithField("component", "tablestore"),
	}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for callers that need raw queries.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies any pending schema migrations.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("tablestore: open migrations: %w", err)
	}

	var m *migrate.Migrate
	switch s.driver {
	case "postgres":
		driver, err := migratepg.WithInstance(s.db, &migratepg.Config{})
		if err != nil {
			return fmt.Errorf("tablestore: migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return fmt.Errorf("tablestore: migrate: %w", err)
		}
	case "sqlite3":
		driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("tablestore: migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("tablestore: migrate: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("tablestore: apply migrations: %w", err)
	}
	version, _, _ := m.Version()
	s.logger.WithField("version", version).Debug("schema up to date")
	return nil
}

// rebind converts ? placeholders to the postgres $n form when needed.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts the table and its q column. Blank meta fields are filled
// from the table itself; the returned Meta carries the final values.
func (s *Store) Save(tab *lifetable.LifeTable, meta Meta) (Meta, error) {
	if tab == nil {
		return Meta{}, fmt.Errorf("tablestore: nil table")
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Name == "" {
		meta.Name = tab.Name()
	}
	if meta.Name == "" {
		return Meta{}, fmt.Errorf("tablestore: table has no name")
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.MinAge = tab.MinAge()
	meta.Radix = tab.Radix()

	publishedOn := ""
	if meta.PublishedOn.IsValid() {
		publishedOn = meta.PublishedOn.String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Meta{}, fmt.Errorf("tablestore: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(s.rebind(`INSERT INTO mortality_tables
		(id, name, content_type, reference, min_age, radix, published_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		meta.ID, meta.Name, meta.ContentType, meta.Reference,
		meta.MinAge, meta.Radix, publishedOn, meta.CreatedAt)
	if err != nil {
		return Meta{}, fmt.Errorf("tablestore: insert %q: %w", meta.Name, err)
	}

	insertRate, err := tx.Prepare(s.rebind(
		`INSERT INTO mortality_rates (table_id, age, qx) VALUES (?, ?, ?)`))
	if err != nil {
		return Meta{}, fmt.Errorf("tablestore: prepare rates: %w", err)
	}
	defer insertRate.Close()

	rows := tab.Rows()
	for _, row := range rows {
		if _, err := insertRate.Exec(meta.ID, row.Age, row.MortalityRate); err != nil {
			return Meta{}, fmt.Errorf("tablestore: insert rate age %d: %w", row.Age, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Meta{}, fmt.Errorf("tablestore: commit: %w", err)
	}
	s.logger.WithField("name", meta.Name).
		WithField("ages", len(rows)).
		Info("stored mortality table")
	return meta, nil
}

// Load rebuilds the named table under the given fractional age assumption.
func (s *Store) Load(name string, assumption lifetable.Assumption) (*lifetable.LifeTable, Meta, error) {
	meta, err := s.lookup(name)
	if err != nil {
		return nil, Meta{}, err
	}

	rows, err := s.db.Query(s.rebind(
		`SELECT age, qx FROM mortality_rates WHERE table_id = ? ORDER BY age`), meta.ID)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("tablestore: rates for %q: %w", name, err)
	}
	defer rows.Close()

	var qx []float64
	next := meta.MinAge
	for rows.Next() {
		var age int
		var q float64
		if err := rows.Scan(&age, &q); err != nil {
			return nil, Meta{}, fmt.Errorf("tablestore: scan rate: %w", err)
		}
		if age != next {
			return nil, Meta{}, fmt.Errorf("tablestore: %q has an age gap at %d", name, age)
		}
		next++
		qx = append(qx, q)
	}
	if err := rows.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("tablestore: iterate rates: %w", err)
	}

	tab, err := lifetable.New(lifetable.Builder{
		Name:       meta.Name,
		MinAge:     meta.MinAge,
		Qx:         qx,
		Radix:      meta.Radix,
		Assumption: assumption,
	})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("tablestore: rebuild %q: %w", name, err)
	}
	return tab, meta, nil
}

func (s *Store) lookup(name string) (Meta, error) {
	row := s.db.QueryRow(s.rebind(`SELECT id, name, content_type, reference,
		min_age, radix, published_on, created_at
		FROM mortality_tables WHERE name = ?`), name)
	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("tablestore: %q: %w", name, ErrNotFound)
	}
	return meta, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (Meta, error) {
	var meta Meta
	var publishedOn string
	if err := row.Scan(&meta.ID, &meta.Name, &meta.ContentType, &meta.Reference,
		&meta.MinAge, &meta.Radix, &publishedOn, &meta.CreatedAt); err != nil {
		return Meta{}, err
	}
	if publishedOn != "" {
		d, err := civil.ParseDate(publishedOn)
		if err != nil {
			return Meta{}, fmt.Errorf("tablestore: published_on %q: %w", publishedOn, err)
		}
		meta.PublishedOn = d
	}
	return meta, nil
}

// List returns every stored table, ordered by name.
func (s *Store) List() ([]Meta, error) {
	rows, err := s.db.Query(`SELECT id, name, content_type, reference,
		min_age, radix, published_on, created_at
		FROM mortality_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("tablestore: list: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("tablestore: scan table: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tablestore: iterate tables: %w", err)
	}
	return out, nil
}

// Delete removes the named table and its rates.
func (s *Store) Delete(name string) error {
	meta, err := s.lookup(name)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("tablestore: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind(
		`DELETE FROM mortality_rates WHERE table_id = ?`), meta.ID); err != nil {
		return fmt.Errorf("tablestore: delete rates: %w", err)
	}
	if _, err := tx.Exec(s.rebind(
		`DELETE FROM mortality_tables WHERE id = ?`), meta.ID); err != nil {
		return fmt.Errorf("tablestore: delete table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tablestore: commit: %w", err)
	}
	s.logger.WithField("name", name).Info("deleted mortality table")
	return nil
}
