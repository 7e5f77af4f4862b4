package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Run records one pipeline invocation whose output directory was registered
// with the viewer.
type Run struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dir       string    `json:"dir"`
	Sequences int       `json:"sequences"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// runs store configuration; "json" keeps a flat file, "sqlite" a database.
var (
	runsStore = "json"
	runsPath  = "runs.json"
	runsDB    *sql.DB
)

const runsSchema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	name TEXT,
	dir TEXT,
	sequences INTEGER,
	created_at TEXT,
	updated_at TEXT
)`

// initRunsStore prepares the configured backend. For sqlite it opens the
// database and creates the schema.
func initRunsStore(store, path string) error {
	runsStore = store
	runsPath = path
	if store != "sqlite" {
		return nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return err
	}
	runsDB = db
	return nil
}

func saveRuns(path string, runs []Run) error {
	if runsStore == "sqlite" {
		return saveRunsSQLite(runs)
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadRuns(path string) ([]Run, error) {
	if runsStore == "sqlite" {
		return loadRunsSQLite()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func saveRunsSQLite(runs []Run) error {
	if runsDB == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	tx, err := runsDB.Begin()
	if err != nil {
		return err
	}
	for _, r := range runs {
		_, err := tx.Exec(
			`INSERT INTO runs (id, name, dir, sequences, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name=excluded.name, dir=excluded.dir, sequences=excluded.sequences,
			   updated_at=excluded.updated_at`,
			r.ID, r.Name, r.Dir, r.Sequences,
			r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func loadRunsSQLite() ([]Run, error) {
	if runsDB == nil {
		return nil, fmt.Errorf("sqlite store not initialized")
	}
	rows, err := runsDB.Query(`SELECT id, name, dir, sequences, created_at, updated_at FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		var created, updated string
		if err := rows.Scan(&r.ID, &r.Name, &r.Dir, &r.Sequences, &created, &updated); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
