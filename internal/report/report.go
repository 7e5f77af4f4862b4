// Package report renders an identity matrix as a tab-separated text table,
// a JSON document for the viewer tools, and annotated heatmap images.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
)

// Output file names within the run's output directory.
const (
	SummaryFile = "summary.txt"
	MatrixFile  = "matrix.json"
	HeatmapBase = "heatmap"
)

// WriteText writes the matrix as a tab-separated table: an empty cell plus
// all identifiers on the first line, then one row per identifier with each
// value rendered as "<v>%" to one decimal place.
func WriteText(w io.Writer, m *identity.Matrix) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("\t" + strings.Join(m.Order, "\t") + "\n")
	for i, id := range m.Order {
		bw.WriteString(id)
		for j := range m.Order {
			fmt.Fprintf(bw, "\t%.1f%%", m.Values[i][j])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ParseText reads a table produced by WriteText back into a matrix. The
// rendered precision is one decimal place, so values recovered here may
// differ from the computed matrix by up to 0.05.
func ParseText(r io.Reader) (*identity.Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("report: empty summary")
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 2 || header[0] != "" {
		return nil, fmt.Errorf("report: malformed summary header")
	}
	order := header[1:]
	m := &identity.Matrix{Order: order, Values: make([][]float64, 0, len(order))}
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(order)+1 {
			return nil, fmt.Errorf("report: row %q has %d cells, want %d", fields[0], len(fields)-1, len(order))
		}
		row := make([]float64, len(order))
		for j, cell := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSuffix(cell, "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("report: bad cell %q: %w", cell, err)
			}
			row[j] = v
		}
		m.Values = append(m.Values, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(m.Values) != len(order) {
		return nil, fmt.Errorf("report: %d rows for %d identifiers", len(m.Values), len(order))
	}
	return m, nil
}

// WriteJSON stores the matrix as indented JSON at path.
func WriteJSON(path string, m *identity.Matrix) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a matrix stored by WriteJSON.
func ReadJSON(path string) (*identity.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m identity.Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Emit writes the full report set into dir: summary.txt, matrix.json and
// one heatmap image per requested format. The directory is created if
// absent. Emit is all-or-nothing per file but makes no attempt to undo
// files already written when a later one fails.
func Emit(dir string, m *identity.Matrix, formats []string) error {
	// reject bad formats up front so a typo cannot leave a partial report
	for _, format := range formats {
		if !supportedFormat(format) {
			return fmt.Errorf("report: unsupported image format %q", format)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, SummaryFile))
	if err != nil {
		return err
	}
	if err := WriteText(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := WriteJSON(filepath.Join(dir, MatrixFile), m); err != nil {
		return err
	}
	for _, format := range formats {
		path := filepath.Join(dir, HeatmapBase+"."+format)
		if err := WriteHeatmap(path, m); err != nil {
			return fmt.Errorf("heatmap %s: %w", format, err)
		}
	}
	return nil
}
