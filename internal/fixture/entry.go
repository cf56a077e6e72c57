// Package fixture stores tables as JSON lines, one cell per line, optionally zstd compressed.
// The replay server serves them and the reader can record what it decoded.
package fixture

import (
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
)

// Entry is one cell of a fixture file. At most one of Value, Int and Hex is set; none means an
// empty string value.
//
// ex: {"key":"user#1","family":"profile","qualifier":"name","value":"ada","ts":1000}
type Entry struct {
	Key       string   `json:"key"`
	Family    string   `json:"family"`
	Qualifier string   `json:"qualifier"`
	Value     *string  `json:"value,omitempty"`
	Int       *int64   `json:"int,omitempty"`
	Hex       string   `json:"hex,omitempty"`
	Timestamp int64    `json:"ts,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

func (e *Entry) validate() error {
	var errGrp []error
	if e.Key == "" {
		errGrp = append(errGrp, errors.New("key is required"))
	}
	if e.Family == "" {
		errGrp = append(errGrp, errors.New("family is required"))
	}
	set := 0
	if e.Value != nil {
		set++
	}
	if e.Int != nil {
		set++
	}
	if e.Hex != "" {
		set++
	}
	if set > 1 {
		errGrp = append(errGrp, errors.New("only one of value, int and hex can be set"))
	}
	return errors.Join(errGrp...)
}

func (e *Entry) value() (codec.Value, error) {
	switch {
	case e.Int != nil:
		return codec.Int(*e.Int), nil
	case e.Hex != "":
		b, err := hex.DecodeString(e.Hex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex value: %w", err)
		}
		return codec.Bytes(b), nil
	case e.Value != nil:
		return codec.String(*e.Value), nil
	}
	return codec.String(""), nil
}

// Entries flattens a row into fixture entries.
func Entries(row *chunk.Row) []*Entry {
	var out []*Entry
	for _, e := range row.Entries() {
		entry := &Entry{
			Key:       string(row.Key),
			Family:    e.Family,
			Qualifier: string(e.Qualifier),
			Timestamp: e.Cell.TimestampMicros,
			Labels:    e.Cell.Labels,
		}
		switch v := e.Cell.Value.(type) {
		case codec.Int:
			n := int64(v)
			entry.Int = &n
		case codec.Bytes:
			entry.Hex = hex.EncodeToString(v)
		case codec.String:
			s := string(v)
			entry.Value = &s
		}
		out = append(out, entry)
	}
	return out
}
