package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
)

func sampleMatrix() *identity.Matrix {
	return &identity.Matrix{
		Order: []string{"X", "Y", "Z"},
		Values: [][]float64{
			{100, 75, 33.33},
			{75, 100, 66.67},
			{33.33, 66.67, 100},
		},
	}
}

func TestWriteTextFormat(t *testing.T) {
	var sb strings.Builder
	if err := WriteText(&sb, sampleMatrix()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "\tX\tY\tZ" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "X\t100.0%\t75.0%\t33.3%" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
}

func TestTextRoundTrip(t *testing.T) {
	m := sampleMatrix()
	var sb strings.Builder
	if err := WriteText(&sb, m); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ParseText(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(got.Order) != 3 || got.Order[2] != "Z" {
		t.Fatalf("order lost in round trip: %v", got.Order)
	}
	// the rendered table carries one decimal, so allow half a unit of it
	for i := range m.Values {
		for j := range m.Values[i] {
			if d := math.Abs(got.Values[i][j] - m.Values[i][j]); d > 0.05 {
				t.Fatalf("cell (%d,%d) off by %v", i, j, d)
			}
		}
	}
}

func TestParseTextRejectsRaggedRows(t *testing.T) {
	bad := "\tA\tB\nA\t100.0%\nB\t75.0%\t100.0%\n"
	if _, err := ParseText(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected error for ragged row")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	if err := WriteJSON(path, sampleMatrix()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Order[1] != "Y" || got.Values[0][1] != 75 {
		t.Fatalf("unexpected matrix: %+v", got)
	}
}

func TestEmitWritesAllFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	if err := Emit(dir, sampleMatrix(), []string{"png", "svg"}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	for _, name := range []string{SummaryFile, MatrixFile, "heatmap.png", "heatmap.svg"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if fi.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestEmitRejectsBadFormatBeforeWriting(t *testing.T) {
	for _, formats := range [][]string{{"pdf", "bmp"}, {"svg", ""}} {
		dir := filepath.Join(t.TempDir(), "out")
		if err := Emit(dir, sampleMatrix(), formats); err == nil {
			t.Fatalf("expected error for formats %v", formats)
		}
		// nothing may be emitted when any requested format is bad
		if _, err := os.Stat(filepath.Join(dir, SummaryFile)); !os.IsNotExist(err) {
			t.Fatalf("partial summary left behind for formats %v", formats)
		}
		if _, err := os.Stat(filepath.Join(dir, MatrixFile)); !os.IsNotExist(err) {
			t.Fatalf("partial matrix left behind for formats %v", formats)
		}
	}
}

func TestWriteHeatmapUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.bmp")
	if err := WriteHeatmap(path, sampleMatrix()); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
