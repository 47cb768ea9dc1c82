// Package storage provides a SQLite-backed library of encoded saves.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/powdersave/internal/gamesave"
)

// Store manages the SQLite database connection for the save library.
type Store struct {
	db *sql.DB
}

// SaveMeta is the searchable summary stored next to the encoded bytes.
type SaveMeta struct {
	BlockW    int
	BlockH    int
	Particles int
	Version   string
	FromNewer bool
	Missing   []string
}

// NewSaveMeta summarises a decoded save.
func NewSaveMeta(gs *gamesave.GameSave) SaveMeta {
	return SaveMeta{
		BlockW:    gs.BlockSize.X,
		BlockH:    gs.BlockSize.Y,
		Particles: len(gs.Particles),
		Version:   gs.Version.String(),
		FromNewer: gs.FromNewerVersion,
		Missing:   gs.MissingElements.Names(),
	}
}

// SaveEntry is one library record without its payload.
type SaveEntry struct {
	ID        int64
	Name      string
	Size      int
	CreatedAt time.Time
	SaveMeta
}

// Stats aggregates the whole library.
type Stats struct {
	Count          int
	TotalBytes     int64
	TotalParticles int64
	LastAdded      time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			data BLOB NOT NULL,
			size INTEGER NOT NULL,
			block_w INTEGER NOT NULL,
			block_h INTEGER NOT NULL,
			particles INTEGER NOT NULL DEFAULT 0,
			version TEXT NOT NULL,
			from_newer INTEGER NOT NULL DEFAULT 0,
			missing TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutSave stores data under name, replacing any save with the same name.
// Returns the ID of the record.
func (s *Store) PutSave(name string, data []byte, meta SaveMeta) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errors.New("storage: save name is empty")
	}
	_, err := s.db.Exec(
		`INSERT INTO saves (name, data, size, block_w, block_h, particles, version, from_newer, missing)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   data = excluded.data,
		   size = excluded.size,
		   block_w = excluded.block_w,
		   block_h = excluded.block_h,
		   particles = excluded.particles,
		   version = excluded.version,
		   from_newer = excluded.from_newer,
		   missing = excluded.missing,
		   created_at = CURRENT_TIMESTAMP`,
		name, data, len(data), meta.BlockW, meta.BlockH, meta.Particles,
		meta.Version, meta.FromNewer, strings.Join(meta.Missing, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save %q: %w", name, err)
	}

	var id int64
	if err := s.db.QueryRow("SELECT id FROM saves WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: cannot get saved ID: %w", err)
	}
	return id, nil
}

const entryColumns = `id, name, size, block_w, block_h, particles, version, from_newer, missing, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extra ...any) (SaveEntry, error) {
	var e SaveEntry
	var missing string
	var createdAt any
	dest := []any{&e.ID, &e.Name, &e.Size, &e.BlockW, &e.BlockH, &e.Particles,
		&e.Version, &e.FromNewer, &missing, &createdAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return e, err
	}
	if missing != "" {
		e.Missing = strings.Split(missing, ",")
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// parseTime handles both time.Time and string values from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// GetSave returns the entry and encoded bytes stored under name.
// Returns nil, nil, nil when there is no such save.
func (s *Store) GetSave(name string) (*SaveEntry, []byte, error) {
	var data []byte
	row := s.db.QueryRow(`SELECT `+entryColumns+`, data FROM saves WHERE name = ?`, name)
	e, err := scanEntry(row, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storage: cannot query save %q: %w", name, err)
	}
	return &e, data, nil
}

// ListSaves returns the most recently stored saves first.
func (s *Store) ListSaves(limit int) ([]SaveEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT `+entryColumns+`
		 FROM saves
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query saves: %w", err)
	}
	defer rows.Close()

	var entries []SaveEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// DeleteSave removes the named save. It reports whether a save existed.
func (s *Store) DeleteSave(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM saves WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("storage: cannot delete save %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: cannot count deleted rows: %w", err)
	}
	return n > 0, nil
}

// GetStats aggregates the library.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	var lastAdded any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(SUM(particles), 0), MAX(created_at)
		 FROM saves`,
	).Scan(&stats.Count, &stats.TotalBytes, &stats.TotalParticles, &lastAdded)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get library stats: %w", err)
	}
	stats.LastAdded = parseTime(lastAdded)
	return stats, nil
}
