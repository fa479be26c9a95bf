package navigator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS diagnoses (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	symptoms TEXT NOT NULL,
	disease TEXT NOT NULL,
	medicine TEXT NOT NULL,
	medicine_found INTEGER NOT NULL,
	confidence REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diagnoses_created_at ON diagnoses(created_at);
`

// HistoryStore persists diagnoses in SQLite.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &HistoryStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (h *HistoryStore) Path() string {
	return h.path
}

// Save records a diagnosis.
func (h *HistoryStore) Save(ctx context.Context, d Diagnosis) error {
	symptoms, err := json.Marshal(d.Symptoms)
	if err != nil {
		return fmt.Errorf("encode symptoms: %w", err)
	}
	found := 0
	if d.MedicineFound {
		found = 1
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO diagnoses (id, created_at, symptoms, disease, medicine, medicine_found, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CreatedAt.UnixNano(), string(symptoms), d.Disease, d.Medicine, found, d.Confidence)
	if err != nil {
		return fmt.Errorf("insert diagnosis: %w", err)
	}
	return nil
}

// Recent returns up to limit diagnoses, newest first. limit <= 0 returns all.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]Diagnosis, error) {
	query := `SELECT id, created_at, symptoms, disease, medicine, medicine_found, confidence
		FROM diagnoses ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Diagnosis
	for rows.Next() {
		var (
			d        Diagnosis
			created  int64
			symptoms string
			found    int
		)
		if err := rows.Scan(&d.ID, &created, &symptoms, &d.Disease, &d.Medicine, &found, &d.Confidence); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(symptoms), &d.Symptoms); err != nil {
			return nil, fmt.Errorf("decode symptoms: %w", err)
		}
		d.CreatedAt = time.Unix(0, created)
		d.MedicineFound = found == 1
		d.Advice = DefaultAdvice
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of stored diagnoses.
func (h *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diagnoses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Clear deletes every stored diagnosis.
func (h *HistoryStore) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, "DELETE FROM diagnoses"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the database.
func (h *HistoryStore) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}
