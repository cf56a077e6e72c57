// Package export writes decoded rows out as litetable protobuf messages, protojson, or Arrow
// IPC streams.
package export

import (
	"context"
	"fmt"
	"github.com/litetable/litetable-db/pkg/proto"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"google.golang.org/protobuf/encoding/protojson"
	"io"
	"sync"
)

// ToProto converts rows to the litetable wire message. Cell labels have no place in it and
// are dropped.
func ToProto(rows ...*chunk.Row) (*proto.LitetableData, error) {
	protoData := &proto.LitetableData{
		Rows: make(map[string]*proto.Row, len(rows)),
	}

	for _, row := range rows {
		protoRow := &proto.Row{
			Key:  string(row.Key),
			Cols: make(map[string]*proto.VersionedQualifier, len(row.Families)),
		}

		for _, family := range row.Families {
			columnFamily := &proto.VersionedQualifier{
				Qualifiers: make(map[string]*proto.QualifierValues, len(family.Columns)),
			}

			for _, col := range family.Columns {
				qualifierValues := &proto.QualifierValues{
					Values: make([]*proto.TimestampedValue, 0, len(col.Cells)),
				}
				for _, cell := range col.Cells {
					value, err := codec.Encode(cell.Value)
					if err != nil {
						return nil, fmt.Errorf("row %q %s:%s: %w", row.Key, family.Name, col.Qualifier, err)
					}
					qualifierValues.Values = append(qualifierValues.Values, &proto.TimestampedValue{
						Value:         value,
						TimestampUnix: cell.TimestampMicros,
					})
				}
				columnFamily.Qualifiers[string(col.Qualifier)] = qualifierValues
			}

			protoRow.Cols[family.Name] = columnFamily
		}

		protoData.Rows[protoRow.Key] = protoRow
	}

	return protoData, nil
}

// WriteJSON writes rows as one indented protojson document.
func WriteJSON(w io.Writer, rows ...*chunk.Row) error {
	data, err := ToProto(rows...)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// JSONLines writes every emitted row as one compact protojson line.
type JSONLines struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

func (j *JSONLines) Emit(_ context.Context, row *chunk.Row) error {
	data, err := ToProto(row)
	if err != nil {
		return err
	}
	b, err := protojson.Marshal(data)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(append(b, '\n'))
	return err
}
