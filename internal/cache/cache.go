package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	rpmutils "github.com/sassoftware/go-rpmutils"
	_ "modernc.org/sqlite"
)

// Record is one package registered in the local cache
type Record struct {
	Name      string
	Version   string
	PackageID string
	Settings  string
	Options   string
	Path      string
	Archive   string
	Digest    string
	RunID     string
	CreatedAt time.Time
}

// Ref returns the name/version reference of the record
func (r Record) Ref() string {
	return r.Name + "/" + r.Version
}

// Store provides SQLite operations for the package cache
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache at dbPath.
// Use ":memory:" for in-memory databases (useful for testing).
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache folder: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Register inserts r, replacing any earlier record with the same reference
// and package id. A missing RunID or CreatedAt is filled in.
func (s *Store) Register(r Record) (Record, error) {
	if r.Name == "" || r.Version == "" || r.PackageID == "" {
		return Record{}, fmt.Errorf("record needs name, version and package id")
	}
	if r.Digest != "" {
		if _, err := digest.Parse(r.Digest); err != nil {
			return Record{}, fmt.Errorf("invalid digest for %s: %w", r.Ref(), err)
		}
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO packages
			(ref, name, version, package_id, settings, options, path, archive, digest, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Ref(), r.Name, r.Version, r.PackageID, r.Settings, r.Options,
		r.Path, r.Archive, r.Digest, r.RunID, r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to register %s:%s: %w", r.Ref(), r.PackageID, err)
	}
	return r, nil
}

// List returns the records for name, newest version first. An empty name
// lists everything.
func (s *Store) List(name string) ([]Record, error) {
	query := `SELECT name, version, package_id, settings, options, path,
		COALESCE(archive, ''), COALESCE(digest, ''), run_id, created_at FROM packages`
	var args []any
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err := rows.Scan(&r.Name, &r.Version, &r.PackageID, &r.Settings, &r.Options,
			&r.Path, &r.Archive, &r.Digest, &r.RunID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for %s: %w", r.Ref(), err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		if c := rpmutils.Vercmp(records[i].Version, records[j].Version); c != 0 {
			return c > 0
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Latest returns the newest record for name
func (s *Store) Latest(name string) (Record, error) {
	records, err := s.List(name)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, fmt.Errorf("no cached package named %s", name)
	}
	return records[0], nil
}

// Remove deletes one record; it reports whether a row existed
func (s *Store) Remove(ref, packageID string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM packages WHERE ref = ? AND package_id = ?", ref, packageID)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s:%s: %w", ref, packageID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
