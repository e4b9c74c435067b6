package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

const (
	tierCoarse = "coarse"
	tierFine   = "fine"
)

// SQLiteStorage persists inventories in a SQLite database so that edits survive restarts.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. An empty database is seeded
// with the default inventories.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	return OpenSQLiteWithSeed(path, calculator.DefaultInventories())
}

// OpenSQLiteWithSeed is OpenSQLite with the inventories written to an empty database.
func OpenSQLiteWithSeed(path string, seed calculator.Inventories) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS plates (
		tier     TEXT    NOT NULL,
		unit     TEXT    NOT NULL,
		position INTEGER NOT NULL,
		weight   REAL    NOT NULL,
		PRIMARY KEY (tier, position)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create plates table: %w", err)
	}

	s := &SQLiteStorage{db: db}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM plates`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("count plates: %w", err)
	}
	if count == 0 {
		if err := s.SetInventories(seed); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed plates: %w", err)
		}
	}

	return s, nil
}

// GetInventories loads both inventories ordered heaviest first.
func (s *SQLiteStorage) GetInventories() (calculator.Inventories, error) {
	rows, err := s.db.Query(`SELECT tier, unit, weight FROM plates ORDER BY tier, position`)
	if err != nil {
		return calculator.Inventories{}, fmt.Errorf("query plates: %w", err)
	}
	defer rows.Close()

	var inv calculator.Inventories
	for rows.Next() {
		var tier, unit string
		var weight float64
		if err := rows.Scan(&tier, &unit, &weight); err != nil {
			return calculator.Inventories{}, fmt.Errorf("scan plate: %w", err)
		}

		target := &inv.Coarse
		if tier == tierFine {
			target = &inv.Fine
		}
		target.Unit = units.Unit(unit)
		target.Plates = append(target.Plates, weight)
	}
	if err := rows.Err(); err != nil {
		return calculator.Inventories{}, fmt.Errorf("iterate plates: %w", err)
	}

	if err := inv.Validate(); err != nil {
		return calculator.Inventories{}, fmt.Errorf("stored inventories are corrupt: %w", err)
	}
	return inv, nil
}

// SetInventories validates the inventories and replaces the stored rows in one transaction.
func (s *SQLiteStorage) SetInventories(inv calculator.Inventories) (err error) {
	normalized, err := normalizeInventories(inv)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(`DELETE FROM plates`); err != nil {
		return fmt.Errorf("clear plates: %w", err)
	}

	for tier, sel := range map[string]calculator.Inventory{tierCoarse: normalized.Coarse, tierFine: normalized.Fine} {
		for pos, weight := range sel.Plates {
			_, err = tx.Exec(
				`INSERT INTO plates (tier, unit, position, weight) VALUES (?, ?, ?, ?)`,
				tier, string(sel.Unit), pos, weight,
			)
			if err != nil {
				return fmt.Errorf("insert %s plate: %w", tier, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit plates: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
