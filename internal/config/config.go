// Package config loads readrows settings from ~/.litetable/readrows.toml.
package config

import (
	"errors"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/litetable/litetable-readrows/internal/codec"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/rs/zerolog/log"
	"os"
	"path/filepath"
	"strings"
)

const (
	litetableDir   = ".litetable"
	configFileName = "readrows.toml"
)

type Config struct {
	Debug  bool         `toml:"debug"`
	Server ServerConfig `toml:"server"`
	Reader ReaderConfig `toml:"reader"`
	Feed   FeedConfig   `toml:"feed"`
	Output OutputConfig `toml:"output"`
}

// ServerConfig drives cmd/rowserver.
type ServerConfig struct {
	Address           string `toml:"address"`
	Port              int    `toml:"port"`
	Fixture           string `toml:"fixture"`
	MaxFragment       int    `toml:"max_fragment"`
	ChunksPerResponse int    `toml:"chunks_per_response"`
	HeartbeatEvery    int    `toml:"heartbeat_every"`
	ResetEvery        int    `toml:"reset_every"`
}

// ReaderConfig drives cmd/rowreader.
type ReaderConfig struct {
	Target        string   `toml:"target"`
	Table         string   `toml:"table"`
	AppProfile    string   `toml:"app_profile"`
	Keys          []string `toml:"keys"`
	Prefix        string   `toml:"prefix"`
	Start         string   `toml:"start"`
	End           string   `toml:"end"`
	Limit         int64    `toml:"limit"`
	Reversed      bool     `toml:"reversed"`
	DecodeAsBytes bool     `toml:"decode_as_bytes"`
	TextEncoding  string   `toml:"text_encoding"`
}

type FeedConfig struct {
	Enabled     bool   `toml:"enabled"`
	Address     string `toml:"address"`
	Port        int    `toml:"port"`
	Buffer      int    `toml:"buffer"`
	ReplayDepth int    `toml:"replay_depth"`
}

// OutputConfig names optional files the reader writes. Empty paths are skipped.
type OutputConfig struct {
	JSON       string `toml:"json"`
	JSONLines  string `toml:"json_lines"`
	Arrow      string `toml:"arrow"`
	ArrowBatch int    `toml:"arrow_batch"`
	Fixture    string `toml:"fixture"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           "127.0.0.1",
			Port:              9443,
			MaxFragment:       64 * 1024,
			ChunksPerResponse: 64,
		},
		Reader: ReaderConfig{
			Target: "127.0.0.1:9443",
		},
		Feed: FeedConfig{
			Address: "127.0.0.1",
			Port:    9444,
			Buffer:  1000,
		},
		Output: OutputConfig{
			ArrowBatch: 1024,
		},
	}
}

// Dir returns the litetable directory in the user's home directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, litetableDir), nil
}

// NewConfig loads ~/.litetable/readrows.toml, falling back to defaults when it is absent.
func NewConfig() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get LiteTable directory: %w", err)
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("no config file, using defaults")
		return Default(), nil
	}
	return Load(path)
}

// Load reads path over the defaults. Keys the file leaves out keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, key := range meta.Undecoded() {
		log.Warn().Str("key", key.String()).Msg("unknown config key")
	}

	if meta.IsDefined("reader", "prefix") && (meta.IsDefined("reader", "start") ||
		meta.IsDefined("reader", "end")) {
		return nil, errors.New("reader.prefix cannot be combined with reader.start or reader.end")
	}
	if meta.IsDefined("reader", "text_encoding") {
		cfg.Reader.TextEncoding = strings.TrimSpace(cfg.Reader.TextEncoding)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errGrp []error
	if c.Server.MaxFragment < 0 || c.Server.ChunksPerResponse < 0 || c.Server.HeartbeatEvery < 0 ||
		c.Server.ResetEvery < 0 {
		errGrp = append(errGrp, errors.New("server chunking settings cannot be negative"))
	}
	if c.Reader.Limit < 0 {
		errGrp = append(errGrp, errors.New("reader.limit cannot be negative"))
	}
	if err := c.Reader.DecodeOptions().Validate(); err != nil {
		errGrp = append(errGrp, err)
	}
	if c.Feed.Buffer < 0 || c.Feed.ReplayDepth < 0 {
		errGrp = append(errGrp, errors.New("feed buffer sizes cannot be negative"))
	}
	if c.Output.ArrowBatch < 0 {
		errGrp = append(errGrp, errors.New("output.arrow_batch cannot be negative"))
	}
	return errors.Join(errGrp...)
}

func (r ReaderConfig) DecodeOptions() codec.Options {
	return codec.Options{DecodeAsBytes: r.DecodeAsBytes, TextEncoding: r.TextEncoding}
}

// Request builds the scan request. With no keys, prefix or bounds the whole table is read.
func (r ReaderConfig) Request() resume.Request {
	req := resume.Request{
		Table:      r.Table,
		AppProfile: r.AppProfile,
		RowsLimit:  r.Limit,
		Reversed:   r.Reversed,
	}
	for _, k := range r.Keys {
		req.Rows.Keys = append(req.Rows.Keys, []byte(k))
	}

	switch {
	case r.Prefix != "":
		req.Rows.Ranges = append(req.Rows.Ranges, resume.Prefix([]byte(r.Prefix)))
	case r.Start != "" || r.End != "":
		rng := resume.Range{}
		if r.Start != "" {
			rng.Start = resume.Closed(r.Start)
		}
		if r.End != "" {
			rng.End = resume.Open(r.End)
		}
		req.Rows.Ranges = append(req.Rows.Ranges, rng)
	}
	return req
}
