package main

import (
	"strings"
	"testing"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
)

func testMatrix() *identity.Matrix {
	return &identity.Matrix{
		Order: []string{"A", "B", "C"},
		Values: [][]float64{
			{100, 95.5, 62.1},
			{95.5, 100, 71.3},
			{62.1, 71.3, 100},
		},
	}
}

func TestCycleMode(t *testing.T) {
	m := newModel(testMatrix())
	if m.currentMode != modePairs {
		t.Fatalf("expected initial mode pairs, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeNearest {
		t.Fatalf("expected nearest, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeStats {
		t.Fatalf("expected stats, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modePairs {
		t.Fatalf("expected pairs, got %v", m.currentMode)
	}
}

func TestBuildRightLinesPairs(t *testing.T) {
	m := newModel(testMatrix())
	lines := m.buildRightLines(0)
	if len(lines) != 2 {
		t.Fatalf("expected 2 partner lines for A, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "B") || !strings.Contains(lines[1], "C") {
		t.Fatalf("pairs mode must keep input order, got %v", lines)
	}
}

func TestBuildRightLinesNearestSorts(t *testing.T) {
	m := newModel(testMatrix())
	m.currentMode = modeNearest
	lines := m.buildRightLines(2)
	if !strings.Contains(lines[0], "B") {
		t.Fatalf("expected B (71.3%%) first for C, got %v", lines)
	}
}

func TestStatsLines(t *testing.T) {
	m := newModel(testMatrix())
	m.currentMode = modeStats
	lines := m.buildRightLines(0)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "closest:") || !strings.Contains(joined, "95.50") {
		t.Fatalf("expected closest partner at 95.50, got %q", joined)
	}
	if !strings.Contains(joined, "farthest:") || !strings.Contains(joined, "62.10") {
		t.Fatalf("expected farthest partner at 62.10, got %q", joined)
	}
}

func TestStatsLinesIdenticalPartners(t *testing.T) {
	m := newModel(&identity.Matrix{
		Order: []string{"A", "B", "C"},
		Values: [][]float64{
			{100, 100, 100},
			{100, 100, 100},
			{100, 100, 100},
		},
	})
	lines := m.statsLines(0)
	joined := strings.Join(lines, "\n")
	// every partner at 100 must still name a farthest partner
	if !strings.Contains(joined, "farthest: 100.00%  B") {
		t.Fatalf("expected farthest line to carry an identifier, got %q", joined)
	}
	if !strings.Contains(joined, "closest:  100.00%") {
		t.Fatalf("expected closest at 100.00, got %q", joined)
	}
}

func TestRowMean(t *testing.T) {
	got := rowMean(testMatrix(), 0)
	want := (95.5 + 62.1) / 2
	if got != want {
		t.Fatalf("expected mean %v, got %v", want, got)
	}
}
