// Package identity computes pairwise percent-identity matrices from a
// multiple sequence alignment. Columns where either sequence carries a gap
// are excluded from the comparison.
package identity

import (
	"fmt"
	"math"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/fasta"
)

// Gap is the alignment placeholder character.
const Gap = '-'

// Matrix is a square percent-identity table indexed by Order. Values[i][j]
// holds the identity of Order[i] versus Order[j] in [0,100], rounded to two
// decimal places, with the diagonal fixed at 100.
type Matrix struct {
	Order  []string    `json:"order"`
	Values [][]float64 `json:"values"`
}

// At returns the value for the pair of identifiers at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Compute builds the matrix for the identifiers in order, looking sequences
// up in the aligned collection. An identifier missing from aligned is an
// error; nothing is computed past it.
func Compute(aligned *fasta.Collection, order []string) (*Matrix, error) {
	seqs := make([]string, len(order))
	for i, id := range order {
		s, ok := aligned.Get(id)
		if !ok {
			return nil, fmt.Errorf("identity: %q missing from alignment", id)
		}
		seqs[i] = s
	}
	n := len(order)
	m := &Matrix{Order: order, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		for j := range m.Values[i] {
			if i == j {
				m.Values[i][j] = 100.0
				continue
			}
			m.Values[i][j] = pairIdentity(seqs[i], seqs[j])
		}
	}
	return m, nil
}

// pairIdentity compares two aligned sequences position by position,
// truncating to the shorter one. A column counts only when neither side is
// a gap; a pair with no such columns scores 0.
func pairIdentity(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	matches, length := 0, 0
	for k := 0; k < n; k++ {
		if a[k] == Gap || b[k] == Gap {
			continue
		}
		length++
		if a[k] == b[k] {
			matches++
		}
	}
	if length == 0 {
		return 0
	}
	return round2(100.0 * float64(matches) / float64(length))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
