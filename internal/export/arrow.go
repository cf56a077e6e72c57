package export

import (
	"context"
	"errors"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"io"
	"sync"
)

const defaultBatchSize = 1024

// CellSchema is the schema of exported cells: one Arrow row per cell, with the value in the
// column matching its kind.
var CellSchema = arrow.NewSchema([]arrow.Field{
	{Name: "row_key", Type: arrow.BinaryTypes.Binary},
	{Name: "family", Type: arrow.BinaryTypes.String},
	{Name: "qualifier", Type: arrow.BinaryTypes.Binary},
	{Name: "timestamp_micros", Type: arrow.PrimitiveTypes.Int64},
	{Name: "labels", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "value_string", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "value_int", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "value_bytes", Type: arrow.BinaryTypes.Binary, Nullable: true},
}, nil)

const (
	colRowKey = iota
	colFamily
	colQualifier
	colTimestamp
	colLabels
	colKind
	colString
	colInt
	colBytes
)

// ArrowWriter streams cells as Arrow IPC record batches.
type ArrowWriter struct {
	mu        sync.Mutex
	writer    *ipc.Writer
	builder   *array.RecordBuilder
	batchSize int
	pending   int
	closed    bool
}

type ArrowConfig struct {
	Writer io.Writer
	// BatchSize is the number of cells per record batch.
	BatchSize int
	// Allocator defaults to a Go allocator.
	Allocator memory.Allocator
}

func (c *ArrowConfig) validate() error {
	var errGrp []error
	if c.Writer == nil {
		errGrp = append(errGrp, errors.New("writer required"))
	}
	if c.BatchSize < 0 {
		errGrp = append(errGrp, errors.New("batch size cannot be negative"))
	}
	return errors.Join(errGrp...)
}

// NewArrowWriter starts an IPC stream on cfg.Writer.
func NewArrowWriter(cfg *ArrowConfig) (*ArrowWriter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	mem := cfg.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}

	return &ArrowWriter{
		writer:    ipc.NewWriter(cfg.Writer, ipc.WithSchema(CellSchema), ipc.WithAllocator(mem)),
		builder:   array.NewRecordBuilder(mem, CellSchema),
		batchSize: batchSize,
	}, nil
}

// Emit appends the cells of row, writing a batch whenever one is full.
func (a *ArrowWriter) Emit(_ context.Context, row *chunk.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("arrow writer is closed")
	}

	for _, e := range row.Entries() {
		a.append(row.Key, e)
		a.pending++
		if a.pending >= a.batchSize {
			if err := a.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *ArrowWriter) append(key []byte, e chunk.Entry) {
	b := a.builder
	b.Field(colRowKey).(*array.BinaryBuilder).Append(key)
	b.Field(colFamily).(*array.StringBuilder).Append(e.Family)
	b.Field(colQualifier).(*array.BinaryBuilder).Append(e.Qualifier)
	b.Field(colTimestamp).(*array.Int64Builder).Append(e.Cell.TimestampMicros)

	labels := b.Field(colLabels).(*array.ListBuilder)
	labels.Append(true)
	for _, l := range e.Cell.Labels {
		labels.ValueBuilder().(*array.StringBuilder).Append(l)
	}

	str := b.Field(colString).(*array.StringBuilder)
	num := b.Field(colInt).(*array.Int64Builder)
	raw := b.Field(colBytes).(*array.BinaryBuilder)
	switch v := e.Cell.Value.(type) {
	case codec.String:
		str.Append(string(v))
		num.AppendNull()
		raw.AppendNull()
	case codec.Int:
		str.AppendNull()
		num.Append(int64(v))
		raw.AppendNull()
	case codec.Bytes:
		str.AppendNull()
		num.AppendNull()
		raw.Append(v)
	default:
		str.AppendNull()
		num.AppendNull()
		raw.AppendNull()
	}
	kind := ""
	if e.Cell.Value != nil {
		kind = e.Cell.Value.Kind().String()
	}
	b.Field(colKind).(*array.StringBuilder).Append(kind)
}

func (a *ArrowWriter) flush() error {
	if a.pending == 0 {
		return nil
	}
	rec := a.builder.NewRecord()
	defer rec.Release()
	a.pending = 0
	return a.writer.Write(rec)
}

// Close writes the last batch and ends the stream. It does not close the underlying writer.
func (a *ArrowWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	defer a.builder.Release()

	return errors.Join(a.flush(), a.writer.Close())
}
