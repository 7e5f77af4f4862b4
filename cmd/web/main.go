package main

// Web viewer for a pipeline output directory: identity matrix table, JSON
// API, heatmap downloads and a registry of past runs.

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/report"
)

// MatrixPage carries the matrix plus presentation helpers into the template.
type MatrixPage struct {
	Dir    string
	Matrix *identity.Matrix
}

var pageTemplate = template.Must(template.New("matrix").Funcs(template.FuncMap{
	"cell": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"cls": func(v float64) string {
		switch {
		case v >= 90:
			return "hi"
		case v >= 70:
			return "mid"
		default:
			return "lo"
		}
	},
}).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Pairwise identity</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
th { background: #f5f5f5; }
td.hi { background: #c8e6c9; }
td.mid { background: #fff3cd; }
td.lo { background: #f8d7da; }
</style></head><body>
<h1>Pairwise identity matrix</h1>
<p>Output directory: {{.Dir}} &middot;
<a href="/summary">summary.txt</a> &middot;
<a href="/heatmap/pdf">heatmap.pdf</a> &middot;
<a href="/heatmap/svg">heatmap.svg</a> &middot;
<a href="/runs">runs</a></p>
<table>
<tr><th></th>{{range .Matrix.Order}}<th>{{.}}</th>{{end}}</tr>
{{range $i, $id := .Matrix.Order}}
<tr><th>{{$id}}</th>{{range $j, $_ := $.Matrix.Order}}{{$v := index $.Matrix.Values $i $j}}<td class="{{cls $v}}">{{cell $v}}</td>{{end}}</tr>
{{end}}
</table>
</body></html>
`))

var runsTemplate = template.Must(template.New("runs").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Runs</title></head><body>
<h1>Recorded runs</h1>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>Name</th><th>Directory</th><th>Sequences</th><th>Created</th></tr>
{{range .}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Dir}}</td><td>{{.Sequences}}</td><td>{{.CreatedAt}}</td></tr>
{{end}}
</table>
</body></html>
`))

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		duration := time.Since(start)
		logger.Printf("%s - %s %s %d %dB %s %q",
			r.RemoteAddr, r.Method, r.URL.RequestURI(), srw.status, srw.written, duration, r.UserAgent())
	})
}

// readMatrix loads the matrix.json from the served output directory.
func readMatrix(dir string) (*identity.Matrix, error) {
	return report.ReadJSON(filepath.Join(dir, report.MatrixFile))
}

func indexHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matrix, err := readMatrix(dir)
		if err != nil {
			http.Error(w, "failed to read matrix", http.StatusInternalServerError)
			return
		}
		if err := pageTemplate.Execute(w, MatrixPage{Dir: dir, Matrix: matrix}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func summaryHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeFile(w, r, filepath.Join(dir, report.SummaryFile))
	}
}

// heatmapHandler serves /heatmap/{format} from the output directory.
func heatmapHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "missing format", http.StatusBadRequest)
			return
		}
		format := parts[2]
		switch format {
		case "pdf", "svg", "png":
		default:
			http.Error(w, "unknown format", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, report.HeatmapBase+"."+format))
	}
}

func apiMatrixHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matrix, err := readMatrix(dir)
		if err != nil {
			http.Error(w, "failed to read matrix", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(matrix)
	}
}

// apiPairHandler returns the identity for ?a=<id>&b=<id>.
func apiPairHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := r.URL.Query().Get("a")
		b := r.URL.Query().Get("b")
		if a == "" || b == "" {
			http.Error(w, "missing a or b", http.StatusBadRequest)
			return
		}
		matrix, err := readMatrix(dir)
		if err != nil {
			http.Error(w, "failed to read matrix", http.StatusInternalServerError)
			return
		}
		ai, bi := -1, -1
		for i, id := range matrix.Order {
			if id == a {
				ai = i
			}
			if id == b {
				bi = i
			}
		}
		if ai < 0 || bi < 0 {
			http.Error(w, "unknown identifier", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"a": a, "b": b, "identity": matrix.Values[ai][bi],
		})
	}
}

func runsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := loadRuns(runsPath)
		if err != nil {
			http.Error(w, "failed to load runs", http.StatusInternalServerError)
			return
		}
		if err := runsTemplate.Execute(w, runs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// apiRunsHandler lists runs on GET; POST registers the served directory as
// a new run (simple read-modify-write, like the database it replaced).
func apiRunsHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			runs, err := loadRuns(runsPath)
			if err != nil {
				http.Error(w, "failed to load runs", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_ = json.NewEncoder(w).Encode(runs)

		case http.MethodPost:
			matrix, err := readMatrix(dir)
			if err != nil {
				http.Error(w, "no matrix in served directory", http.StatusConflict)
				return
			}
			name := r.URL.Query().Get("name")
			if name == "" {
				name = filepath.Base(dir)
			}
			runs, err := loadRuns(runsPath)
			if err != nil {
				http.Error(w, "failed to load runs", http.StatusInternalServerError)
				return
			}
			now := time.Now().UTC()
			run := Run{
				ID:        fmt.Sprintf("run-%d", now.UnixNano()),
				Name:      name,
				Dir:       dir,
				Sequences: len(matrix.Order),
				CreatedAt: now,
				UpdatedAt: now,
			}
			runs = append(runs, run)
			if err := saveRuns(runsPath, runs); err != nil {
				http.Error(w, "failed to save runs", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_ = json.NewEncoder(w).Encode(run)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP address to serve on")
	dir := flag.String("dir", ".", "pipeline output directory to serve")
	runsStoreFlag := flag.String("runs-store", "json", "runs store backend: json or sqlite")
	runsPathFlag := flag.String("runs", "runs.json", "path to the runs store (json file or sqlite db)")
	logFile := flag.String("log", "", "path to write access logs (optional). If empty, logs go to stdout only")
	flag.Parse()

	if err := initRunsStore(*runsStoreFlag, *runsPathFlag); err != nil {
		log.Fatalf("failed to initialize runs store: %v", err)
	}
	if runsDB != nil {
		defer runsDB.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", indexHandler(*dir))
	mux.HandleFunc("/summary", summaryHandler(*dir))
	mux.HandleFunc("/heatmap/", heatmapHandler(*dir))
	mux.HandleFunc("/runs", runsPageHandler())
	mux.HandleFunc("/api/matrix", apiMatrixHandler(*dir))
	mux.HandleFunc("/api/pair", apiPairHandler(*dir))
	mux.HandleFunc("/api/runs", apiRunsHandler(*dir))

	// configure logger
	var out io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := log.New(out, "dfr-web: ", log.LstdFlags)

	handler := loggingMiddleware(logger, mux)

	srv := &http.Server{Addr: *addr, Handler: handler, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}
	fmt.Printf("serving identity matrix at http://%s/ (dir=%s)\n", *addr, *dir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
