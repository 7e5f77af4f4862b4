package align

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestMafftMissingBinary(t *testing.T) {
	m := &Mafft{Path: filepath.Join(t.TempDir(), "no-such-mafft")}
	in := filepath.Join(t.TempDir(), "in.fasta")
	if err := os.WriteFile(in, []byte(">a\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.fasta")
	if err := m.Align(context.Background(), in, out); err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no output file may remain after failure")
	}
}

func TestMafftNonZeroExitRemovesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub not portable to windows")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "mafft")
	script := "#!/bin/sh\necho partial\necho 'alignment blew up' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	in := filepath.Join(dir, "in.fasta")
	if err := os.WriteFile(in, []byte(">a\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out.fasta")

	m := &Mafft{Path: stub}
	err := m.Align(context.Background(), in, out)
	if err == nil {
		t.Fatalf("expected error for non-zero exit")
	}
	if _, serr := os.Stat(out); !os.IsNotExist(serr) {
		t.Fatalf("partial output must be removed, found file at %s", out)
	}
}

func TestMafftSuccessWritesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub not portable to windows")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "mafft")
	script := "#!/bin/sh\nprintf '>a\\nAC-GT\\n'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	in := filepath.Join(dir, "in.fasta")
	if err := os.WriteFile(in, []byte(">a\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out.fasta")

	m := &Mafft{Path: stub}
	if err := m.Align(context.Background(), in, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != ">a\nAC-GT\n" {
		t.Fatalf("unexpected aligned output: %q", string(data))
	}
}

func TestRemoteAlign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		f, _, err := r.FormFile("input_data")
		if err != nil {
			http.Error(w, "missing input_data", http.StatusBadRequest)
			return
		}
		f.Close()
		w.Write([]byte(">a\nAC-GT\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.fasta")
	if err := os.WriteFile(in, []byte(">a\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out.fasta")

	rem := &Remote{BaseURL: srv.URL}
	if err := rem.Align(context.Background(), in, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != ">a\nAC-GT\n" {
		t.Fatalf("unexpected remote alignment: %q", string(data))
	}
}

func TestRemoteAlignServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.fasta")
	if err := os.WriteFile(in, []byte(">a\nACGT\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out.fasta")

	rem := &Remote{BaseURL: srv.URL}
	if err := rem.Align(context.Background(), in, out); err == nil {
		t.Fatalf("expected error for 503 response")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no output file may remain after service error")
	}
}
