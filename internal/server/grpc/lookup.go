package grpc

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"github.com/litetable/litetable-db/pkg/proto"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/export"
	"github.com/litetable/litetable-readrows/internal/fixture"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"regexp"
	"slices"
	"time"
)

// lookup answers litetable point and prefix reads from the same source ReadRows scans.
// The source is read-only, so writes, deletes and family changes stay unimplemented.
type lookup struct {
	proto.UnimplementedLitetableServiceServer
	source source
	table  string
}

func (l *lookup) validateRead(msg *proto.ReadRequest) error {
	var errGrp []error
	if msg.GetFamily() == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "family required"))
	}
	if msg.GetRowKey() == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "rowKey required"))
	}
	return errors.Join(errGrp...)
}

func (l *lookup) Read(ctx context.Context, msg *proto.ReadRequest) (*proto.LitetableData, error) {
	now := time.Now()
	log.Debug().Msgf("Read request: %v", msg)
	if err := l.validateRead(msg); err != nil {
		return nil, err
	}
	if l.table == "" {
		return nil, status.Errorf(codes.FailedPrecondition, "no table configured for reads")
	}

	match, err := keyMatcher(msg.GetQueryType(), msg.GetRowKey())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid rowKey pattern: %v", err)
	}

	var rows []*chunk.Row
	err = l.source.Scan(ctx, l.table, false, func(row *chunk.Row) error {
		if !match(row.Key) {
			return nil
		}
		if r := project(row, msg.GetFamily(), msg.GetQualifiers(), int(msg.GetLatest())); r != nil {
			rows = append(rows, r)
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, fixture.ErrTableNotFound):
		return nil, status.Errorf(codes.NotFound, "%v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	default:
		return nil, status.Errorf(codes.Internal, "failed to read data: %v", err)
	}

	data, err := export.ToProto(rows...)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to read data: %v", err)
	}
	log.Debug().Msgf("Read latency: %v", time.Since(now))
	return data, nil
}

func keyMatcher(qt proto.QueryType, key string) (func([]byte) bool, error) {
	switch qt {
	case proto.QueryType_PREFIX:
		return func(k []byte) bool { return bytes.HasPrefix(k, []byte(key)) }, nil
	case proto.QueryType_REGEX:
		re, err := regexp.Compile(key)
		if err != nil {
			return nil, err
		}
		return re.Match, nil
	}
	return func(k []byte) bool { return string(k) == key }, nil
}

// project copies the cells of family in row, limited to qualifiers when given and to the
// latest newest cells per column when latest > 0. It returns nil when nothing is left.
func project(row *chunk.Row, family string, qualifiers []string, latest int) *chunk.Row {
	f := row.Family(family)
	if f == nil {
		return nil
	}

	out := chunk.NewRow(row.Key)
	var of *chunk.Family
	for _, col := range f.Columns {
		if len(qualifiers) > 0 && !slices.Contains(qualifiers, string(col.Qualifier)) {
			continue
		}
		cells := slices.Clone(col.Cells)
		slices.SortStableFunc(cells, func(a, b *chunk.Cell) int {
			return cmp.Compare(b.TimestampMicros, a.TimestampMicros)
		})
		if latest > 0 && len(cells) > latest {
			cells = cells[:latest]
		}
		if len(cells) == 0 {
			continue
		}
		if of == nil {
			of = out.EnsureFamily(family)
		}
		oc := of.EnsureColumn(col.Qualifier, col.Name)
		oc.Cells = cells
	}
	if of == nil {
		return nil
	}
	return out
}
