// Command rowreader scans a ReadRows server, decodes the rows and hands them to the
// configured outputs.
package main

import (
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/app"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/config"
	"github.com/litetable/litetable-readrows/internal/export"
	"github.com/litetable/litetable-readrows/internal/feed"
	"github.com/litetable/litetable-readrows/internal/fixture"
	"github.com/litetable/litetable-readrows/internal/readrows"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/litetable/litetable-readrows/internal/server/grpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"sync"
	"time"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := initialize(cancel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rowreader")
	}

	if err = application.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("rowreader stopped with an error")
	}
}

func initialize(done context.CancelFunc) (*app.App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	request := cfg.Reader.Request()
	strategy, err := resume.NewStrategy(&request)
	if err != nil {
		return nil, err
	}

	client, err := grpc.Dial(&grpc.ClientConfig{Target: cfg.Reader.Target})
	if err != nil {
		return nil, err
	}

	var deps []app.Dependency
	out, err := newOutputs(&cfg.Output)
	if err != nil {
		return nil, errors.Join(err, client.Close())
	}

	if cfg.Feed.Enabled {
		cdc, err := feed.New(&feed.Config{
			Address:     cfg.Feed.Address,
			Port:        cfg.Feed.Port,
			Buffer:      cfg.Feed.Buffer,
			ReplayDepth: cfg.Feed.ReplayDepth,
		})
		if err != nil {
			return nil, errors.Join(err, out.close(), client.Close())
		}
		out.sinks = append(out.sinks, cdc)
		deps = append(deps, cdc)

		// subscribers keep the replay history after the scan; serve until interrupted
		done = func() { log.Info().Msg("scan finished, CDC feed keeps serving until interrupted") }
	}

	ctx, cancel := context.WithCancel(context.Background())
	deps = append([]app.Dependency{&scan{
		client:   client,
		request:  &request,
		decode:   cfg.Reader.DecodeOptions(),
		sink:     readrows.Tee(out.sinks...),
		finish:   func() error { return errors.Join(out.close(), client.Close()) },
		done:     done,
		ctx:      ctx,
		cancel:   cancel,
		strategy: strategy,
	}}, deps...)

	return app.CreateApp(&app.Config{
		ServiceName: "ReadRows Reader",
		StopTimeout: 5 * time.Second,
	}, deps...)
}

// outputs owns the files rows are written to.
type outputs struct {
	sinks   []readrows.Sink
	closers []func() error
	once    sync.Once
}

func newOutputs(cfg *config.OutputConfig) (*outputs, error) {
	o := &outputs{sinks: []readrows.Sink{readrows.SinkFunc(logRow)}}

	if cfg.Fixture != "" {
		w, err := fixture.NewWriter(&fixture.WriterConfig{Path: cfg.Fixture})
		if err != nil {
			return nil, err
		}
		o.sinks = append(o.sinks, readrows.SinkFunc(func(_ context.Context, row *chunk.Row) error {
			return w.Write(row)
		}))
		o.closers = append(o.closers, w.Close)
	}

	if cfg.JSONLines != "" {
		f, err := os.Create(cfg.JSONLines)
		if err != nil {
			return nil, errors.Join(err, o.close())
		}
		o.sinks = append(o.sinks, export.NewJSONLines(f))
		o.closers = append(o.closers, f.Close)
	}

	if cfg.JSON != "" {
		var (
			mu   sync.Mutex
			rows []*chunk.Row
		)
		o.sinks = append(o.sinks, readrows.SinkFunc(func(_ context.Context, row *chunk.Row) error {
			mu.Lock()
			defer mu.Unlock()
			rows = append(rows, row)
			return nil
		}))
		path := cfg.JSON
		o.closers = append(o.closers, func() error {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return errors.Join(export.WriteJSON(f, rows...), f.Close())
		})
	}

	if cfg.Arrow != "" {
		f, err := os.Create(cfg.Arrow)
		if err != nil {
			return nil, errors.Join(err, o.close())
		}
		aw, err := export.NewArrowWriter(&export.ArrowConfig{Writer: f, BatchSize: cfg.ArrowBatch})
		if err != nil {
			return nil, errors.Join(err, f.Close(), o.close())
		}
		o.sinks = append(o.sinks, aw)
		o.closers = append(o.closers, func() error { return errors.Join(aw.Close(), f.Close()) })
	}

	return o, nil
}

func (o *outputs) close() error {
	var errs []error
	o.once.Do(func() {
		for _, c := range o.closers {
			errs = append(errs, c())
		}
	})
	return errors.Join(errs...)
}
