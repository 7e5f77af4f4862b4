package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/align"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/config"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/fasta"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/ncbi"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/report"

	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// AlignmentFile is the aligned FASTA written into the output directory.
const AlignmentFile = "all_sequences.aln.fasta"

const usageText = `usage: pairwise-heatmap -in <input.fasta> -out <output-dir>

Computes a pairwise identity matrix for the sequences in the input FASTA
(aligned with mafft) and writes summary.txt, matrix.json and annotated
heatmap images into the output directory. Instead of -in, -accessions can
name NCBI nucleotide accessions to fetch.
`

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

func main() {
	// CLI flags
	inputFlag := flag.String("in", "", "input FASTA file path")
	outputFlag := flag.String("out", "", "output directory path")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	accessionsFlag := flag.String("accessions", "", "comma-separated NCBI accessions to fetch instead of -in")
	mafftArgs := flag.String("mafft-args", "", "additional arguments to pass to mafft (quoted)")
	formatsFlag := flag.String("formats", "", "comma-separated heatmap formats (pdf,svg,png)")
	dryRun := flag.Bool("dry-run", false, "parse and validate only; no alignment, no outputs")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("pairwise-heatmap", version)
		return
	}

	// load config (optional file)
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad config file:", err)
		os.Exit(1)
	}

	// merge CLI flags into config (flags override config when provided)
	if *inputFlag != "" {
		cfg.InputFasta = *inputFlag
	}
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	if *formatsFlag != "" {
		cfg.HeatmapFormats = strings.Split(*formatsFlag, ",")
	}
	if len(cfg.HeatmapFormats) == 0 {
		cfg.HeatmapFormats = []string{"pdf", "svg"}
	}

	if (cfg.InputFasta == "" && *accessionsFlag == "") || cfg.OutputDir == "" {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	var logFileHandle *os.File
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			logFileHandle = f
			defer func() { _ = logFileHandle.Close() }()
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	// create logger backed by the timestamping writer and expose Fd so charm.log can detect TTY
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	// apply log level from flags/config (flags override config)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logger.SetLevel(log.DebugLevel)
		case "info", "":
			logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			logger.SetLevel(log.WarnLevel)
		case "error":
			logger.SetLevel(log.ErrorLevel)
		default:
			logger.SetLevel(log.InfoLevel)
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}

	logger.Debug("loaded config", "input_fasta", cfg.InputFasta, "output_dir", cfg.OutputDir, "mafft_path", cfg.MafftPath, "remote_align_url", cfg.RemoteAlignURL, "formats", cfg.HeatmapFormats)
	logger.Info("starting pairwise-heatmap", "input_fasta", cfg.InputFasta, "output_dir", cfg.OutputDir, "formats", strings.Join(cfg.HeatmapFormats, ","))

	// apply ncbi config
	if cfg.NcbiCachePath != "" {
		if absPath, aerr := filepath.Abs(cfg.NcbiCachePath); aerr == nil {
			ncbi.SetCacheFilePath(absPath)
			logger.Info("ncbi cache path set from config (absolute)", "path", absPath)
		} else {
			ncbi.SetCacheFilePath(cfg.NcbiCachePath)
			logger.Info("ncbi cache path set from config", "path", cfg.NcbiCachePath)
		}
		defer ncbi.FlushCache()
	}
	if cfg.NcbiApiKey != "" {
		os.Setenv("NCBI_API_KEY", cfg.NcbiApiKey)
		logger.Info("ncbi api key set from config.json (value not logged)")
	}
	if cfg.NcbiCacheTTLSecs > 0 {
		ncbi.SetCacheTTLSeconds(cfg.NcbiCacheTTLSecs)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Fatal("cannot create output directory", "path", cfg.OutputDir, "err", err)
	}

	inputPath := cfg.InputFasta
	if *accessionsFlag != "" {
		inputPath = filepath.Join(cfg.OutputDir, "input.fasta")
		if err := fetchInput(logger, *accessionsFlag, inputPath); err != nil {
			logger.Fatal("ncbi fetch failed", "err", err)
		}
	}

	// parse the raw input; its first-seen order is the canonical order for
	// the matrix and all reports
	seqs, err := fasta.ParseFile(inputPath)
	if err != nil {
		logger.Fatal("failed to parse input fasta", "path", inputPath, "err", err)
	}
	logger.Info("parsed fasta", "path", inputPath, "records", seqs.Len())
	for _, dup := range seqs.Duplicates() {
		logger.Warn("duplicate header overwrote earlier sequence", "id", dup)
	}
	if seqs.Len() < 2 {
		logger.Fatal("need at least two sequences for a pairwise matrix", "records", seqs.Len())
	}

	if *dryRun {
		logger.Info("dry-run: skipping alignment and report", "records", seqs.Len())
		return
	}

	// pick the aligner: remote service when configured, mafft otherwise
	var aligner align.Aligner
	if cfg.RemoteAlignURL != "" {
		logger.Info("using remote alignment service", "url", cfg.RemoteAlignURL)
		aligner = &align.Remote{BaseURL: cfg.RemoteAlignURL}
	} else {
		aligner = &align.Mafft{
			Path:      cfg.MafftPath,
			ExtraArgs: mafftExtraArgs(*mafftArgs, cfg.MafftArgs),
			Timeout:   time.Duration(cfg.AlignTimeoutSecs) * time.Second,
		}
	}

	alnPath := filepath.Join(cfg.OutputDir, AlignmentFile)
	start := time.Now()
	if err := aligner.Align(context.Background(), inputPath, alnPath); err != nil {
		logger.Fatal("alignment failed", "err", err)
	}
	logger.Info("alignment finished", "path", alnPath, "duration_ms", time.Since(start).Milliseconds())

	aligned, err := fasta.ParseFile(alnPath)
	if err != nil {
		logger.Fatal("failed to parse aligned fasta", "path", alnPath, "err", err)
	}
	if aligned.Len() != seqs.Len() {
		logger.Fatal("sequence count mismatch between raw and aligned files", "raw", seqs.Len(), "aligned", aligned.Len())
	}

	matrix, err := identity.Compute(aligned, seqs.Order)
	if err != nil {
		logger.Fatal("identity computation failed", "err", err)
	}
	logger.Info("computed identity matrix", "sequences", len(matrix.Order))

	if err := report.Emit(cfg.OutputDir, matrix, cfg.HeatmapFormats); err != nil {
		logger.Fatal("failed to write report", "err", err)
	}
	logger.Info("wrote report", "dir", cfg.OutputDir, "summary", report.SummaryFile, "matrix", report.MatrixFile, "heatmaps", len(cfg.HeatmapFormats))
}

// mafftExtraArgs splits the extra mafft arguments, preferring the -mafft-args
// flag and falling back to the mafft_args config value when the flag is empty.
func mafftExtraArgs(flagArgs, cfgArgs string) []string {
	if flagArgs != "" {
		return strings.Fields(flagArgs)
	}
	return strings.Fields(cfgArgs)
}

// fetchInput pulls the named accessions from NCBI and writes them as the
// input FASTA, preserving the accession order given on the command line.
func fetchInput(logger *log.Logger, accessions, path string) error {
	var accs []string
	for _, a := range strings.Split(accessions, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accs = append(accs, a)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	records, err := ncbi.FetchSequences(ctx, accs)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, acc := range accs {
		rec, ok := records[acc]
		if !ok {
			f.Close()
			return fmt.Errorf("no sequence returned for accession %s", acc)
		}
		fmt.Fprintf(f, ">%s\n%s\n", rec.Header, rec.Sequence)
	}
	logger.Info("fetched sequences from ncbi", "accessions", len(accs), "path", path)
	return f.Close()
}
