package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadRuns_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_runs.db")

	if err := initRunsStore("sqlite", path); err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() {
		runsDB.Close()
		runsDB = nil
		runsStore = "json"
	}()

	now := time.Now().UTC().Truncate(time.Second)
	runs := []Run{{ID: "r1", Name: "first", Dir: "/tmp/out", Sequences: 3, CreatedAt: now, UpdatedAt: now}}
	if err := saveRuns(path, runs); err != nil {
		t.Fatalf("saveRuns failed: %v", err)
	}
	loaded, err := loadRuns(path)
	if err != nil {
		t.Fatalf("loadRuns failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "r1" || loaded[0].Sequences != 3 {
		t.Fatalf("unexpected loaded runs: %#v", loaded)
	}
	if !loaded[0].CreatedAt.Equal(now) {
		t.Fatalf("timestamp mismatch: got %v want %v", loaded[0].CreatedAt, now)
	}

	// updating the same ID must not create a second row
	runs[0].Name = "renamed"
	runs[0].UpdatedAt = now.Add(time.Minute)
	if err := saveRuns(path, runs); err != nil {
		t.Fatalf("second saveRuns failed: %v", err)
	}
	loaded, err = loadRuns(path)
	if err != nil {
		t.Fatalf("second loadRuns failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "renamed" {
		t.Fatalf("upsert failed: %#v", loaded)
	}
}
