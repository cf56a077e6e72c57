package config

import (
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `
debug = true

[server]
port = 7000
fixture = "users.jsonl.zst"
max_fragment = 16

[reader]
table = "users"
keys = ["user#1", "user#9"]
prefix = "user#"
limit = 10
text_encoding = " ISO-8859-1 "

[feed]
enabled = true
replay_depth = 50
`)

	cfg, err := Load(path)
	req.NoError(err)

	req.True(cfg.Debug)
	req.Equal(7000, cfg.Server.Port)
	req.Equal("127.0.0.1", cfg.Server.Address)
	req.Equal(16, cfg.Server.MaxFragment)
	req.Equal(64, cfg.Server.ChunksPerResponse)
	req.Equal("users.jsonl.zst", cfg.Server.Fixture)
	req.Equal("ISO-8859-1", cfg.Reader.TextEncoding)
	req.Equal("127.0.0.1:9443", cfg.Reader.Target)
	req.True(cfg.Feed.Enabled)
	req.Equal(1000, cfg.Feed.Buffer)
	req.Equal(50, cfg.Feed.ReplayDepth)
	req.Equal(1024, cfg.Output.ArrowBatch)

	r := cfg.Reader.Request()
	req.Equal("users", r.Table)
	req.Equal(int64(10), r.RowsLimit)
	req.Equal([][]byte{[]byte("user#1"), []byte("user#9")}, r.Rows.Keys)
	req.Equal([]resume.Range{resume.Prefix([]byte("user#"))}, r.Rows.Ranges)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		body string
		err  string
	}{
		"malformed toml": {
			body: `[server`,
			err:  "load config",
		},
		"prefix with bounds": {
			body: "[reader]\nprefix = \"a\"\nstart = \"b\"\n",
			err:  "reader.prefix cannot be combined",
		},
		"negative chunking": {
			body: "[server]\nmax_fragment = -1\n",
			err:  "server chunking settings cannot be negative",
		},
		"negative limit": {
			body: "[reader]\nlimit = -5\n",
			err:  "reader.limit cannot be negative",
		},
		"unknown encoding": {
			body: "[reader]\ntext_encoding = \"klingon\"\n",
			err:  "unknown text encoding",
		},
		"negative feed buffer": {
			body: "[feed]\nbuffer = -1\n",
			err:  "feed buffer sizes cannot be negative",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.ErrorContains(t, err, tc.err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestNewConfig_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestNewConfig_ReadsHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, litetableDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName),
		[]byte("[reader]\ntable = \"orders\"\n"), 0644))

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "orders", cfg.Reader.Table)
}

func TestReaderConfig_Request(t *testing.T) {
	tests := map[string]struct {
		cfg    ReaderConfig
		ranges []resume.Range
	}{
		"full table": {
			cfg: ReaderConfig{Table: "t"},
		},
		"start only": {
			cfg:    ReaderConfig{Table: "t", Start: "b"},
			ranges: []resume.Range{{Start: resume.Closed("b")}},
		},
		"start and end": {
			cfg:    ReaderConfig{Table: "t", Start: "b", End: "d", Reversed: true},
			ranges: []resume.Range{{Start: resume.Closed("b"), End: resume.Open("d")}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := tc.cfg.Request()
			require.Equal(t, tc.ranges, r.Rows.Ranges)
			require.Equal(t, tc.cfg.Reversed, r.Reversed)
			require.NoError(t, r.Validate())
		})
	}
}
