// Package chunker cuts assembled rows back into ReadRows chunks.
package chunker

import (
	"errors"
	"fmt"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	// ErrEmptyRow is returned for a row without cells: a row is never sent as a bare commit.
	ErrEmptyRow = errors.New("row has no cells")
	// ErrEmptyKey is returned for a row without a key.
	ErrEmptyKey = errors.New("row key is empty")
)

// Split turns a row into chunks. Values longer than maxFragment are split across several
// chunks; maxFragment <= 0 keeps every value whole. Counter values are never split.
//
// The family name is only sent when it changes and the qualifier whenever the column changes,
// the row key only on the first chunk, and the last chunk commits the row.
func Split(row *chunk.Row, maxFragment int) ([]*chunk.Chunk, error) {
	if len(row.Key) == 0 {
		return nil, ErrEmptyKey
	}

	var (
		out    []*chunk.Chunk
		family string
		first  = true
	)
	for _, f := range row.Families {
		for _, col := range f.Columns {
			for i, cell := range col.Cells {
				value, err := codec.Encode(cell.Value)
				if err != nil {
					return nil, fmt.Errorf("encode %s:%s: %w", f.Name, col.Qualifier, err)
				}

				head := &chunk.Chunk{
					TimestampMicros: cell.TimestampMicros,
					Labels:          cell.Labels,
				}
				if first {
					head.RowKey = row.Key
				}
				if first || f.Name != family {
					head.FamilyName = chunk.FamilyName(f.Name)
				}
				if i == 0 {
					head.Qualifier = wrapperspb.Bytes(col.Qualifier)
				}
				first = false
				family = f.Name

				limit := maxFragment
				if _, ok := cell.Value.(codec.Int); ok {
					// a counter is only recognised when its value arrives in one chunk
					limit = 0
				}
				out = append(out, fragment(head, value, limit)...)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyRow
	}
	out[len(out)-1].CommitRow = true
	return out, nil
}

// fragment spreads value over head and as many continuation chunks as needed.
func fragment(head *chunk.Chunk, value []byte, maxFragment int) []*chunk.Chunk {
	if maxFragment <= 0 || len(value) <= maxFragment {
		head.Value = value
		return []*chunk.Chunk{head}
	}

	size := int32(len(value))
	head.Value = value[:maxFragment]
	head.ValueSize = size
	out := []*chunk.Chunk{head}
	for off := maxFragment; off < len(value); off += maxFragment {
		end := min(off+maxFragment, len(value))
		c := &chunk.Chunk{Value: value[off:end]}
		if end < len(value) {
			c.ValueSize = size
		}
		out = append(out, c)
	}
	return out
}

// Batch groups chunks into responses of at most perResponse chunks each. A chunk may be
// followed by its continuation in the next response.
func Batch(chunks []*chunk.Chunk, perResponse int) []*chunk.Response {
	if perResponse <= 0 {
		perResponse = len(chunks)
	}
	var out []*chunk.Response
	for start := 0; start < len(chunks); start += perResponse {
		end := min(start+perResponse, len(chunks))
		out = append(out, &chunk.Response{Chunks: chunks[start:end]})
	}
	return out
}

// Reset returns the chunk that discards the row in progress.
func Reset() *chunk.Chunk {
	return &chunk.Chunk{ResetRow: true}
}
