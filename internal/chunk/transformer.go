// Package chunk reassembles rows from the chunk stream of a ReadRows response.
//
// A Transformer keeps all intermediate state for one scan and must not be reused across
// scans. It is not safe for concurrent use: chunks are processed one at a time, in the order
// they arrived.
package chunk

import (
	"bytes"
	"github.com/litetable/litetable-readrows/internal/codec"
	"github.com/rs/zerolog/log"
)

// maxPrealloc caps the buffer reserved from a chunk's declared value size.
const maxPrealloc = 4 << 20

// Phase is the row state of a Transformer.
type Phase int

const (
	// PhaseNewRow is the initial state and the state after a commit or reset.
	PhaseNewRow Phase = iota + 1
	// PhaseRowInProgress follows the first chunk of a row when no cell value is pending.
	PhaseRowInProgress
	// PhaseCellInProgress is entered while a cell's value is split across chunks.
	PhaseCellInProgress
)

func (p Phase) String() string {
	switch p {
	case PhaseNewRow:
		return "NEW_ROW"
	case PhaseRowInProgress:
		return "ROW_IN_PROGRESS"
	case PhaseCellInProgress:
		return "CELL_IN_PROGRESS"
	}
	return "UNKNOWN"
}

type Config struct {
	// Decode controls how qualifiers and values are decoded.
	Decode codec.Options
	// Reversed expects row keys in strictly decreasing order.
	Reversed bool
}

func (c *Config) validate() error {
	return c.Decode.Validate()
}

// Transformer turns chunks into rows.
type Transformer struct {
	decoder  *codec.Decoder
	reversed bool

	phase  Phase
	row    *Row
	family *Family
	column *Column
	cell   *Cell
	// pending holds the raw fragments of the cell in progress. Fragments are cut at byte
	// boundaries, so the value is decoded once it is complete.
	pending []byte

	lastRowKey     []byte
	lastScannedKey []byte
	err            error
}

// New creates a Transformer for a single scan.
func New(cfg *Config) (*Transformer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	decoder, err := codec.NewDecoder(cfg.Decode)
	if err != nil {
		return nil, err
	}

	t := &Transformer{
		decoder:  decoder,
		reversed: cfg.Reversed,
	}
	t.reset()
	return t, nil
}

// Phase returns the current row state.
func (t *Transformer) Phase() Phase {
	return t.phase
}

// LastRowKey returns the key of the last committed row, nil before the first commit.
func (t *Transformer) LastRowKey() []byte {
	return t.lastRowKey
}

// LastScannedRowKey returns the last progress marker reported by the server.
func (t *Transformer) LastScannedRowKey() []byte {
	return t.lastScannedKey
}

// Err returns the fatal error that stopped the transformer, if any.
func (t *Transformer) Err() error {
	return t.err
}

// Process consumes one chunk. It returns the row when the chunk commits it and nil otherwise.
// Any error is fatal: the transformer keeps returning it and processes nothing else.
func (t *Transformer) Process(c *Chunk) (*Row, error) {
	if t.err != nil {
		return nil, t.err
	}
	if c == nil {
		return nil, t.fail(violation(nil, msgNilChunk))
	}

	var (
		row *Row
		err error
	)
	switch t.phase {
	case PhaseNewRow:
		row, err = t.processNewRow(c)
	case PhaseRowInProgress:
		row, err = t.processRowInProgress(c)
	case PhaseCellInProgress:
		row, err = t.processCellInProgress(c)
	}
	if err != nil {
		return nil, t.fail(err)
	}
	return row, nil
}

// Transform processes every chunk of a response, calling emit for each committed row. The
// response's last scanned row key is recorded once all chunks were accepted.
func (t *Transformer) Transform(resp *Response, emit func(*Row) error) error {
	if t.err != nil {
		return t.err
	}
	for _, c := range resp.Chunks {
		row, err := t.Process(c)
		if err != nil {
			return err
		}
		if row == nil {
			continue
		}
		if err = emit(row); err != nil {
			return err
		}
	}
	if len(resp.LastScannedRowKey) > 0 {
		t.lastScannedKey = append([]byte(nil), resp.LastScannedRowKey...)
	}
	return nil
}

// Finalize must be called once the stream has ended. It fails when a row was started but
// never committed.
func (t *Transformer) Finalize() error {
	if t.err != nil {
		return t.err
	}
	if t.row != nil {
		return t.fail(&Error{err: ErrTruncatedStream, context: msgPendingRow})
	}
	return nil
}

func (t *Transformer) fail(err error) error {
	t.err = err
	log.Debug().Str("phase", t.phase.String()).Msg("chunk stream failed: " + err.Error())
	return err
}

// reset drops all partial row state.
func (t *Transformer) reset() {
	t.row = nil
	t.family = nil
	t.column = nil
	t.cell = nil
	t.pending = nil
	t.phase = PhaseNewRow
}

// commit hands the row over and remembers its key.
func (t *Transformer) commit() *Row {
	row := t.row
	t.reset()
	t.lastRowKey = append([]byte(nil), row.Key...)
	log.Debug().Bytes("rowKey", row.Key).Int("cells", row.CellCount()).Msg("row committed")
	return row
}

func (t *Transformer) processNewRow(c *Chunk) (*Row, error) {
	if err := t.validateNewRow(c); err != nil {
		return nil, err
	}

	t.row = NewRow(c.RowKey)
	t.family = t.row.EnsureFamily(c.FamilyName.Value)
	if err := t.switchColumn(c); err != nil {
		return nil, err
	}
	if err := t.startCell(c); err != nil {
		return nil, err
	}
	return t.moveToNextState(c), nil
}

func (t *Transformer) processRowInProgress(c *Chunk) (*Row, error) {
	if err := t.validateRowInProgress(c); err != nil {
		return nil, err
	}
	if c.ResetRow {
		log.Debug().Bytes("rowKey", t.row.Key).Msg("row reset")
		t.reset()
		return nil, nil
	}

	if c.FamilyName != nil {
		t.family = t.row.EnsureFamily(c.FamilyName.Value)
	}
	if c.Qualifier != nil {
		if err := t.switchColumn(c); err != nil {
			return nil, err
		}
	}
	if err := t.startCell(c); err != nil {
		return nil, err
	}
	return t.moveToNextState(c), nil
}

func (t *Transformer) processCellInProgress(c *Chunk) (*Row, error) {
	if err := t.validateCellInProgress(c); err != nil {
		return nil, err
	}
	if c.ResetRow {
		log.Debug().Bytes("rowKey", t.row.Key).Msg("row reset while cell in progress")
		t.reset()
		return nil, nil
	}

	t.pending = append(t.pending, c.Value...)
	t.cell.Size = c.ValueSize
	if c.ValueSize == 0 {
		v, err := t.decoder.Decode(t.pending, false)
		if err != nil {
			return nil, &Error{err: ErrDecodeInconsistency, context: msgUndecodableValue, chunk: c, cause: err}
		}
		t.cell.Value = v
		t.pending = nil
	}
	return t.moveToNextState(c), nil
}

// switchColumn makes the chunk's qualifier the active column of the active family.
func (t *Transformer) switchColumn(c *Chunk) error {
	name, err := t.decoder.Decode(c.Qualifier.Value, false)
	if err != nil {
		return &Error{err: ErrDecodeInconsistency, context: msgUndecodableQualifier, chunk: c, cause: err}
	}
	t.column = t.family.EnsureColumn(c.Qualifier.Value, name)
	return nil
}

// startCell appends a new cell to the active column. A value that is complete in this chunk
// is eligible for counter decoding; a split value is buffered until its last fragment.
func (t *Transformer) startCell(c *Chunk) error {
	cell := &Cell{
		Labels:          c.Labels,
		TimestampMicros: c.TimestampMicros,
		Size:            c.ValueSize,
	}
	if c.ValueSize > 0 {
		t.pending = append(make([]byte, 0, min(int(c.ValueSize), maxPrealloc)), c.Value...)
	} else {
		v, err := t.decoder.Decode(c.Value, true)
		if err != nil {
			return &Error{err: ErrDecodeInconsistency, context: msgUndecodableValue, chunk: c, cause: err}
		}
		cell.Value = v
	}
	t.column.Cells = append(t.column.Cells, cell)
	t.cell = cell
	return nil
}

// moveToNextState applies the post-append transition shared by every phase.
func (t *Transformer) moveToNextState(c *Chunk) *Row {
	if c.CommitRow {
		return t.commit()
	}
	if c.ValueSize > 0 {
		t.phase = PhaseCellInProgress
	} else {
		t.phase = PhaseRowInProgress
	}
	return nil
}

func (t *Transformer) validateNewRow(c *Chunk) error {
	switch {
	case t.row != nil:
		return violation(c, msgExistingState)
	case len(c.RowKey) == 0:
		return violation(c, msgRowKeyRequired)
	case c.ResetRow:
		return violation(c, msgNewRowReset)
	case t.lastRowKey != nil && bytes.Equal(t.lastRowKey, c.RowKey):
		return violation(c, msgDuplicateKey)
	case t.lastRowKey != nil && !t.ordered(t.lastRowKey, c.RowKey):
		if t.reversed {
			return violation(c, msgKeyOrderReversed)
		}
		return violation(c, msgKeyOrder)
	case c.FamilyName == nil:
		return violation(c, msgFamilyRequired)
	case c.Qualifier == nil:
		return violation(c, msgQualifierRequired)
	}
	return validateValueSizeAndCommitRow(c)
}

func (t *Transformer) validateRowInProgress(c *Chunk) error {
	if len(c.RowKey) != 0 && !bytes.Equal(c.RowKey, t.row.Key) {
		return violation(c, msgCommitBetweenKeys)
	}
	if c.FamilyName != nil && c.Qualifier == nil {
		return violation(c, msgFamilyNoQualifier)
	}
	if err := validateResetRow(c); err != nil {
		return err
	}
	return validateValueSizeAndCommitRow(c)
}

func (t *Transformer) validateCellInProgress(c *Chunk) error {
	if err := validateResetRow(c); err != nil {
		return err
	}
	return validateValueSizeAndCommitRow(c)
}

// ordered reports whether next may follow prev in this scan's direction.
func (t *Transformer) ordered(prev, next []byte) bool {
	if t.reversed {
		return bytes.Compare(next, prev) < 0
	}
	return bytes.Compare(next, prev) > 0
}

func validateResetRow(c *Chunk) error {
	if c.ResetRow && c.hasData() {
		return violation(c, msgResetWithData)
	}
	return nil
}

func validateValueSizeAndCommitRow(c *Chunk) error {
	switch {
	case c.ValueSize < 0:
		return violation(c, msgNegativeValueSize)
	case c.ValueSize > 0 && c.CommitRow:
		return violation(c, msgSizeAndCommit)
	}
	return nil
}
