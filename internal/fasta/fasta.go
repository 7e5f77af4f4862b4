// Package fasta parses FASTA formatted sequence collections. It keeps
// parsing simple and conservative: the entire header line after '>' is the
// identifier, sequence lines are concatenated and upper-cased, and the
// first-seen order of identifiers is preserved.
package fasta

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrMalformedInput is returned when sequence data appears before the first
// '>' header line.
var ErrMalformedInput = errors.New("fasta: sequence data before first header")

// Collection is an ordered set of sequences keyed by their full header line.
// Order records first appearance; a repeated header overwrites the stored
// sequence but does not add a second order entry.
type Collection struct {
	Seqs  map[string]string
	Order []string

	dups []string
}

// Len returns the number of distinct identifiers.
func (c *Collection) Len() int { return len(c.Order) }

// Get returns the sequence for id and whether it is present.
func (c *Collection) Get(id string) (string, bool) {
	s, ok := c.Seqs[id]
	return s, ok
}

// Duplicates returns identifiers that appeared more than once in the input,
// in the order the repeats were seen.
func (c *Collection) Duplicates() []string { return c.dups }

// Parse reads FASTA records from r. Blank lines are ignored; sequence
// characters are upper-cased. Data before the first header is an error.
func Parse(r io.Reader) (*Collection, error) {
	c := &Collection{Seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	header := ""
	seen := false
	var seq strings.Builder
	flush := func() {
		if !seen {
			return
		}
		if _, dup := c.Seqs[header]; dup {
			c.dups = append(c.dups, header)
		} else {
			c.Order = append(c.Order, header)
		}
		c.Seqs[header] = seq.String()
		seq.Reset()
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header = line[1:]
			seen = true
			continue
		}
		if !seen {
			return nil, ErrMalformedInput
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return c, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Write emits the collection as FASTA in canonical order, one sequence line
// per record.
func (c *Collection) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, id := range c.Order {
		if _, err := bw.WriteString(">" + id + "\n" + c.Seqs[id] + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
