package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	InputFasta       string   `json:"input_fasta"`
	OutputDir        string   `json:"output_dir"`
	MafftPath        string   `json:"mafft_path"`
	MafftArgs        string   `json:"mafft_args"`
	AlignTimeoutSecs int64    `json:"align_timeout_seconds"`
	RemoteAlignURL   string   `json:"remote_align_url"`
	HeatmapFormats   []string `json:"heatmap_formats"`
	LogFile          string   `json:"log_file"`
	LogLevel         string   `json:"log_level"`
	NcbiCachePath    string   `json:"ncbi_cache_path"`
	NcbiApiKey       string   `json:"ncbi_api_key"`
	NcbiCacheTTLSecs int64    `json:"ncbi_cache_ttl_seconds"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// A missing file is not an error: defaults are returned.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	f, err := os.Open(path)
	if err != nil {
		// not fatal: return defaults
		return &Config{}, nil
	}
	defer f.Close()
	var c Config
	dec := json.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
