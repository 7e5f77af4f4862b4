// Package align wraps external multiple-sequence-alignment tools behind a
// small capability interface. The pipeline never looks inside the aligner;
// it hands over a FASTA file and expects an aligned FASTA file back.
package align

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single alignment run.
const DefaultTimeout = 10 * time.Minute

// Aligner aligns the sequences in inputPath and writes the aligned FASTA to
// outputPath. A non-nil error means no usable output was produced.
type Aligner interface {
	Align(ctx context.Context, inputPath, outputPath string) error
}

// Mafft runs the mafft executable with an accuracy-oriented strategy
// (iterative refinement, E-INS-i). The aligned FASTA arrives on stdout and
// is streamed to the output file.
type Mafft struct {
	// Path to the executable; looked up in PATH when empty.
	Path string
	// ExtraArgs are appended after the strategy flags.
	ExtraArgs []string
	// Timeout for one run; DefaultTimeout when zero.
	Timeout time.Duration
}

func (m *Mafft) resolve() (string, error) {
	if m.Path != "" {
		return m.Path, nil
	}
	return exec.LookPath("mafft")
}

// Align runs mafft --maxiterate 1000 --genafpair on inputPath. On failure
// the partially written output file is removed.
func (m *Mafft) Align(ctx context.Context, inputPath, outputPath string) error {
	path, err := m.resolve()
	if err != nil {
		return fmt.Errorf("mafft not available: %w", err)
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	args := []string{"--maxiterate", "1000", "--genafpair"}
	args = append(args, m.ExtraArgs...)
	args = append(args, inputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = out
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	closeErr := out.Close()
	if runErr != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("mafft failed: %w: %s", runErr, lastLine(stderr.Bytes()))
	}
	if closeErr != nil {
		_ = os.Remove(outputPath)
		return closeErr
	}
	return nil
}

// lastLine trims tool chatter down to the final non-empty stderr line.
func lastLine(b []byte) string {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := bytes.TrimSpace(lines[i]); len(l) > 0 {
			return string(l)
		}
	}
	return ""
}
