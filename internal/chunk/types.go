package chunk

import (
	"bytes"
	"fmt"
	"github.com/litetable/litetable-readrows/internal/codec"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"strconv"
	"strings"
)

// FamilyName returns a present family name.
func FamilyName(name string) *wrapperspb.StringValue {
	return wrapperspb.String(name)
}

// QualifierName returns a present qualifier.
func QualifierName(q string) *wrapperspb.BytesValue {
	return wrapperspb.Bytes([]byte(q))
}

// Chunk is one wire unit of a ReadRows response. A chunk carries a full cell, a fragment of
// a cell value, or only row boundary signalling. FamilyName and Qualifier are wrappers so an
// empty name is distinguishable from an absent one.
type Chunk struct {
	RowKey          []byte
	FamilyName      *wrapperspb.StringValue
	Qualifier       *wrapperspb.BytesValue
	TimestampMicros int64
	Labels          []string
	Value           []byte
	// ValueSize is non-zero when more fragments of this cell's value follow.
	ValueSize int32
	ResetRow  bool
	CommitRow bool
}

// hasData reports whether a chunk carries anything besides row boundary flags.
func (c *Chunk) hasData() bool {
	return len(c.RowKey) != 0 ||
		c.FamilyName != nil ||
		c.Qualifier != nil ||
		len(c.Value) != 0 ||
		c.TimestampMicros != 0
}

func (c *Chunk) String() string {
	if c == nil {
		return "null"
	}
	var sb strings.Builder
	sb.WriteString("{")
	if c.RowKey != nil {
		fmt.Fprintf(&sb, "rowKey:%s ", strconv.Quote(string(c.RowKey)))
	}
	if c.FamilyName != nil {
		fmt.Fprintf(&sb, "familyName:%s ", strconv.Quote(c.FamilyName.GetValue()))
	}
	if c.Qualifier != nil {
		fmt.Fprintf(&sb, "qualifier:%s ", strconv.Quote(string(c.Qualifier.GetValue())))
	}
	fmt.Fprintf(&sb, "value:%dB valueSize:%d timestampMicros:%d labels:%v resetRow:%t commitRow:%t}",
		len(c.Value), c.ValueSize, c.TimestampMicros, c.Labels, c.ResetRow, c.CommitRow)
	return sb.String()
}

// Response is one message of a ReadRows stream. Responses without chunks may still carry
// LastScannedRowKey as a progress marker.
type Response struct {
	Chunks            []*Chunk
	LastScannedRowKey []byte
}

// Cell is a single timestamped, labelled value.
type Cell struct {
	Value           codec.Value `json:"value"`
	Labels          []string    `json:"labels,omitempty"`
	TimestampMicros int64       `json:"timestampMicros"`
	// Size is the declared fragment size of the last chunk that contributed to the cell,
	// 0 once the value is complete.
	Size int32 `json:"size"`
}

// Column holds the cells of one qualifier in arrival order.
type Column struct {
	Qualifier []byte      `json:"-"`
	Name      codec.Value `json:"qualifier"`
	Cells     []*Cell     `json:"cells"`
}

// Family groups columns in arrival order.
type Family struct {
	Name    string    `json:"name"`
	Columns []*Column `json:"columns"`

	columns map[string]*Column
}

// Row is a fully assembled row. Families, columns and cells keep the order they arrived in.
//
// Example:
//
//	Row{
//	  Key: []byte("user#1"),
//	  Families: []*Family{
//	    {Name: "profile", Columns: []*Column{
//	      {Qualifier: []byte("name"), Name: codec.String("name"), Cells: []*Cell{
//	        {Value: codec.String("ada"), TimestampMicros: 1000},
//	      }},
//	    }},
//	  },
//	}
type Row struct {
	Key      []byte    `json:"key"`
	Families []*Family `json:"families"`

	families map[string]*Family
}

// NewRow returns an empty row for key.
func NewRow(key []byte) *Row {
	k := make([]byte, len(key))
	copy(k, key)
	return &Row{
		Key:      k,
		families: make(map[string]*Family),
	}
}

// Family returns the named family or nil.
func (r *Row) Family(name string) *Family {
	if r.families != nil {
		return r.families[name]
	}
	for _, f := range r.Families {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnsureFamily returns the named family, appending it when it does not exist yet.
func (r *Row) EnsureFamily(name string) *Family {
	if f := r.Family(name); f != nil {
		return f
	}
	if r.families == nil {
		r.families = make(map[string]*Family, len(r.Families)+1)
		for _, f := range r.Families {
			r.families[f.Name] = f
		}
	}
	f := &Family{Name: name, columns: make(map[string]*Column)}
	r.Families = append(r.Families, f)
	r.families[name] = f
	return f
}

// Column returns the column for the raw qualifier or nil.
func (f *Family) Column(qualifier []byte) *Column {
	if f.columns != nil {
		return f.columns[string(qualifier)]
	}
	for _, c := range f.Columns {
		if bytes.Equal(c.Qualifier, qualifier) {
			return c
		}
	}
	return nil
}

// EnsureColumn returns the column for the raw qualifier, appending it with the decoded name
// when it does not exist yet.
func (f *Family) EnsureColumn(qualifier []byte, name codec.Value) *Column {
	if c := f.Column(qualifier); c != nil {
		return c
	}
	if f.columns == nil {
		f.columns = make(map[string]*Column, len(f.Columns)+1)
		for _, c := range f.Columns {
			f.columns[string(c.Qualifier)] = c
		}
	}
	q := make([]byte, len(qualifier))
	copy(q, qualifier)
	c := &Column{Qualifier: q, Name: name}
	f.Columns = append(f.Columns, c)
	f.columns[string(q)] = c
	return c
}

// Cells returns the cells stored under family and raw qualifier.
func (r *Row) Cells(family, qualifier string) []*Cell {
	f := r.Family(family)
	if f == nil {
		return nil
	}
	c := f.Column([]byte(qualifier))
	if c == nil {
		return nil
	}
	return c.Cells
}

// Entry is one cell addressed by family and qualifier.
type Entry struct {
	Family    string
	Qualifier []byte
	Name      codec.Value
	Cell      *Cell
}

// Entries flattens the row into its cells, in row order.
func (r *Row) Entries() []Entry {
	var out []Entry
	for _, f := range r.Families {
		for _, c := range f.Columns {
			for _, cell := range c.Cells {
				out = append(out, Entry{
					Family:    f.Name,
					Qualifier: c.Qualifier,
					Name:      c.Name,
					Cell:      cell,
				})
			}
		}
	}
	return out
}

// CellCount returns the number of cells in the row.
func (r *Row) CellCount() int {
	n := 0
	for _, f := range r.Families {
		for _, c := range f.Columns {
			n += len(c.Cells)
		}
	}
	return n
}
