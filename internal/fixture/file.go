package fixture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/klauspost/compress/zstd"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/rs/zerolog/log"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const zstdExt = ".zst"

// maxLine bounds a single entry, large cell values included.
const maxLine = 16 << 20

// TableName derives the table name from a fixture path: "users.jsonl.zst" is "users".
func TableName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, zstdExt)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Load reads a fixture file. Files ending in .zst are zstd compressed. Malformed lines are
// skipped with a warning.
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, zstdExt) {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd fixture: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return Read(TableName(path), r)
}

// Read reads fixture lines from r into a new table.
func Read(name string, r io.Reader) (*Table, error) {
	table := NewTable(name)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Warn().Err(err).Str("table", name).Int("line", line).Msg("Skipping malformed fixture entry")
			continue
		}
		if err := table.Add(&entry); err != nil {
			log.Warn().Err(err).Str("table", name).Int("line", line).Msg("Skipping invalid fixture entry")
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("table", name).Int("rows", table.Len()).Msg("fixture loaded")
	return table, nil
}

// Writer appends rows to a fixture file.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	zw   *zstd.Encoder
	w    io.Writer
}

type WriterConfig struct {
	// Path of the file to write. A .zst suffix compresses the output.
	Path string
}

func (c *WriterConfig) validate() error {
	if c.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// NewWriter creates the fixture file, truncating an existing one.
func NewWriter(cfg *WriterConfig) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, errors.New("failed to create fixture directory: " + err.Error())
	}
	file, err := os.OpenFile(cfg.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return nil, errors.New("failed to open fixture file: " + err.Error())
	}

	w := &Writer{file: file, w: file}
	if strings.HasSuffix(cfg.Path, zstdExt) {
		zw, err := zstd.NewWriter(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w.zw = zw
		w.w = zw
	}
	return w, nil
}

// Write appends every cell of row as one line.
func (w *Writer) Write(row *chunk.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range Entries(row) {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err = w.w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if w.zw != nil {
		errs = append(errs, w.zw.Close())
	}
	errs = append(errs, w.file.Close())
	return errors.Join(errs...)
}
