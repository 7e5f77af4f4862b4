// Package ncbi fetches nucleotide FASTA records from the NCBI efetch API so
// the pipeline can be pointed at accessions instead of a local file.
// Responses are cached on disk with a TTL.
package ncbi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/fasta"
)

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 20 * time.Second}

type cachedEntry struct {
	Header      string `json:"header"`
	Sequence    string `json:"sequence"`
	RetrievedAt int64  `json:"retrieved_at"`
}

var (
	cacheMu       sync.RWMutex
	cache         map[string]cachedEntry
	cacheLoaded   bool
	cacheFilePath string
	cacheTTLSecs  int64
)

// SetCacheFilePath overrides the on-disk cache location.
func SetCacheFilePath(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheFilePath = path
	cacheLoaded = false
}

// SetCacheTTLSeconds overrides the cache entry lifetime.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

// FlushCache writes the in-memory cache to disk.
func FlushCache() { saveCache() }

// cache TTL in seconds (default 7 days)
func cacheTTL() int64 {
	if cacheTTLSecs > 0 {
		return cacheTTLSecs
	}
	if s := os.Getenv("NCBI_CACHE_TTL_SECONDS"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}
	return int64(7 * 24 * 3600)
}

func defaultCachePath() string {
	if cacheFilePath != "" {
		return cacheFilePath
	}
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "dfr-fagopyrum")
		_ = os.MkdirAll(p, 0o755)
		return filepath.Join(p, "ncbi_cache.json")
	}
	return filepath.Join(os.TempDir(), "dfr_fagopyrum_ncbi_cache.json")
}

func loadCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheLoaded {
		return
	}
	path := defaultCachePath()
	cache = make(map[string]cachedEntry)
	data, err := os.ReadFile(path)
	if err != nil {
		cacheLoaded = true
		return
	}
	_ = json.Unmarshal(data, &cache)
	cacheLoaded = true
}

func saveCache() {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	path := defaultCachePath()
	b, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, b, 0o644)
}

func getCached(acc string) (cachedEntry, bool) {
	loadCache()
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	e, ok := cache[acc]
	if !ok {
		return cachedEntry{}, false
	}
	ttl := cacheTTL()
	if ttl > 0 && time.Now().Unix()-e.RetrievedAt > ttl {
		return cachedEntry{}, false
	}
	return e, true
}

func setCached(acc string, e cachedEntry) {
	if acc == "" || e.Sequence == "" {
		return
	}
	loadCache()
	cacheMu.Lock()
	e.RetrievedAt = time.Now().Unix()
	cache[acc] = e
	cacheMu.Unlock()
	saveCache()
}

// Record is one fetched sequence with its original FASTA header.
type Record struct {
	Header   string
	Sequence string
}

// FetchSequences retrieves nucleotide FASTA records for the given
// accessions in one efetch call, consulting the cache first. The returned
// map is keyed by the requested accession. Retries on 429 honoring
// Retry-After.
func FetchSequences(ctx context.Context, accessions []string) (map[string]Record, error) {
	out := make(map[string]Record)
	var missing []string
	for _, acc := range accessions {
		if acc == "" {
			continue
		}
		if e, ok := getCached(acc); ok {
			out[acc] = Record{Header: e.Header, Sequence: e.Sequence}
			continue
		}
		missing = append(missing, acc)
	}
	if len(missing) == 0 {
		return out, nil
	}

	body, err := efetchFasta(ctx, missing)
	if err != nil {
		return out, err
	}
	coll, err := fasta.Parse(strings.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("ncbi returned unparseable fasta: %w", err)
	}
	for _, header := range coll.Order {
		acc := matchAccession(header, missing)
		if acc == "" {
			continue
		}
		rec := Record{Header: header, Sequence: coll.Seqs[header]}
		out[acc] = rec
		setCached(acc, cachedEntry{Header: header, Sequence: rec.Sequence})
	}
	return out, nil
}

// matchAccession maps a returned FASTA header back to the accession that
// requested it. efetch prefixes headers with the versioned accession, so a
// prefix test on the first token is enough.
func matchAccession(header string, accessions []string) string {
	first := header
	if i := strings.IndexByte(first, ' '); i >= 0 {
		first = first[:i]
	}
	for _, acc := range accessions {
		if first == acc || strings.HasPrefix(first, acc+".") {
			return acc
		}
	}
	return ""
}

func efetchFasta(ctx context.Context, accessions []string) (string, error) {
	base := "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=nuccore&id=%s&rettype=fasta&retmode=text"
	if apiKey := os.Getenv("NCBI_API_KEY"); apiKey != "" {
		base += "&api_key=" + apiKey
	}
	url := fmt.Sprintf(base, strings.Join(accessions, ","))

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", "dfr-fagopyrum-fetcher/1.0")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt*300) * time.Millisecond)
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode == 200:
			if readErr != nil {
				return "", readErr
			}
			return string(data), nil
		case resp.StatusCode == 429:
			lastErr = fmt.Errorf("ncbi efetch returned 429")
			wait := time.Duration(attempt*500) * time.Millisecond
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			time.Sleep(wait)
		default:
			return "", fmt.Errorf("ncbi efetch returned status %d: %s", resp.StatusCode, string(data))
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}
