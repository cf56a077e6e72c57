package main

import (
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"github.com/litetable/litetable-readrows/internal/readrows"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/litetable/litetable-readrows/internal/server/grpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

// scan reads one request to completion as an app dependency. A failed scan is reported to
// the app through Start. A successful one calls done.
type scan struct {
	client   *grpc.Client
	request  *resume.Request
	decode   codec.Options
	sink     readrows.Sink
	finish   func() error
	done     context.CancelFunc
	ctx      context.Context
	cancel   context.CancelFunc
	strategy *resume.Strategy
}

func (s *scan) Start() error {
	err := s.run()
	if ferr := s.finish(); ferr != nil {
		err = errors.Join(err, ferr)
	}
	return s.report(err)
}

// report logs how the scan ended. A scan stopped by the app is not a failure, but like a
// failed one it logs the request that would resume it.
func (s *scan) report(err error) error {
	switch {
	case err == nil:
		log.Info().Int64("rows", s.strategy.RowsRead()).Msg("scan complete")
		s.done()
		return nil
	case errors.Is(err, context.Canceled), status.Code(err) == codes.Canceled:
		s.logResume(log.Info(), "scan stopped")
		return nil
	}
	s.logResume(log.Error().Err(err), "scan interrupted")
	return err
}

func (s *scan) logResume(evt *zerolog.Event, msg string) {
	evt = evt.Int64("rowsRead", s.strategy.RowsRead())
	if next := s.strategy.Next(); next != nil {
		evt = evt.Str("resumeWith", protojson.Format(grpc.NewReadRowsRequest(next)))
	}
	evt.Msg(msg)
}

func (s *scan) run() error {
	stream, err := s.client.ReadRows(s.ctx, s.request)
	if err != nil {
		return err
	}

	reader, err := readrows.New(&readrows.Config{
		Stream:   stream,
		Decode:   s.decode,
		Reversed: s.request.Reversed,
		Strategy: s.strategy,
	})
	if err != nil {
		return err
	}
	return reader.Pipe(s.ctx, s.sink)
}

func (s *scan) Stop() error {
	s.cancel()
	return nil
}

func (s *scan) Name() string {
	return "ReadRows Scan"
}

func logRow(_ context.Context, row *chunk.Row) error {
	for _, e := range row.Entries() {
		log.Info().
			Str("key", string(row.Key)).
			Str("family", e.Family).
			Str("qualifier", codec.Text(e.Name)).
			Int64("ts", e.Cell.TimestampMicros).
			Strs("labels", e.Cell.Labels).
			Str("value", codec.Text(e.Cell.Value)).
			Msg("cell")
	}
	return nil
}
