package grpc

import (
	"cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/chunker"
	"github.com/litetable/litetable-readrows/internal/fixture"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"time"
)

//go:generate mockgen -destination=source_mock.go -package=grpc -source=readrows.go

type source interface {
	Scan(ctx context.Context, table string, reversed bool, fn func(*chunk.Row) error) error
}

var errLimitReached = errors.New("rows limit reached")

type readRows struct {
	bigtablepb.UnimplementedBigtableServer

	source            source
	maxFragment       int
	chunksPerResponse int
	heartbeatEvery    int
	resetEvery        int
}

// ReadRows streams the rows of the requested table that the request selects, cut into chunks
// and grouped into responses.
func (s *readRows) ReadRows(req *bigtablepb.ReadRowsRequest, stream bigtablepb.Bigtable_ReadRowsServer) error {
	return s.serve(requestFromProto(req), stream)
}

func (s *readRows) serve(req *resume.Request, stream responseSender) error {
	now := time.Now()
	log.Debug().Str("table", req.Table).Bool("reversed", req.Reversed).Int64("limit", req.RowsLimit).
		Msg("ReadRows request")
	if err := req.Validate(); err != nil {
		return status.Errorf(codes.InvalidArgument, "%v", err)
	}

	ctx := stream.Context()
	w := &responseWriter{stream: stream, perResponse: s.chunksPerResponse}
	var (
		sent    int64
		skipped int
	)
	err := s.source.Scan(ctx, req.Table, req.Reversed, func(row *chunk.Row) error {
		if !req.Rows.Contains(row.Key) {
			skipped++
			if s.heartbeatEvery > 0 && skipped >= s.heartbeatEvery {
				skipped = 0
				return w.flush(row.Key)
			}
			return nil
		}

		chunks, err := chunker.Split(row, s.maxFragment)
		if err != nil {
			return status.Errorf(codes.Internal, "failed to chunk row %q: %v", row.Key, err)
		}
		if s.resetEvery > 0 && sent%int64(s.resetEvery) == int64(s.resetEvery-1) {
			// start the row, abandon it, then send it in full
			partial := *chunks[0]
			partial.CommitRow = false
			if err = w.add(&partial, chunker.Reset()); err != nil {
				return err
			}
		}
		if err = w.add(chunks...); err != nil {
			return err
		}
		skipped = 0
		sent++
		if req.RowsLimit > 0 && sent >= req.RowsLimit {
			return errLimitReached
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errLimitReached):
	case errors.Is(err, fixture.ErrTableNotFound):
		return status.Errorf(codes.NotFound, "%v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Errorf(codes.Internal, "failed to read rows: %v", err)
	}

	if err = w.flush(nil); err != nil {
		return err
	}
	log.Debug().Str("table", req.Table).Int64("rows", sent).Dur("latency", time.Since(now)).
		Msg("ReadRows finished")
	return nil
}

// responseWriter batches chunks into responses.
type responseWriter struct {
	stream      responseSender
	perResponse int
	pending     []*chunk.Chunk
}

func (w *responseWriter) add(chunks ...*chunk.Chunk) error {
	for _, c := range chunks {
		w.pending = append(w.pending, c)
		if w.perResponse > 0 && len(w.pending) >= w.perResponse {
			if err := w.flush(nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush sends the pending chunks, with lastScanned as the progress marker when set.
func (w *responseWriter) flush(lastScanned []byte) error {
	if len(w.pending) == 0 && len(lastScanned) == 0 {
		return nil
	}
	resp := &chunk.Response{Chunks: w.pending, LastScannedRowKey: lastScanned}
	w.pending = nil
	return w.stream.Send(responseToProto(resp))
}
