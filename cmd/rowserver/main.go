// Command rowserver serves a fixture table over the ReadRows gRPC service.
package main

import (
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/app"
	"github.com/litetable/litetable-readrows/internal/config"
	"github.com/litetable/litetable-readrows/internal/fixture"
	"github.com/litetable/litetable-readrows/internal/server/grpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"time"
)

func main() {
	application, err := initialize()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rowserver")
	}

	if err = application.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("rowserver stopped with an error")
	}
}

func initialize() (*app.App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if cfg.Server.Fixture == "" {
		return nil, errors.New("server.fixture is required")
	}
	table, err := fixture.Load(cfg.Server.Fixture)
	if err != nil {
		return nil, err
	}
	log.Info().Str("table", table.Name()).Int("rows", table.Len()).Msg("fixture loaded")

	srv, err := grpc.NewServer(&grpc.Config{
		Address:           cfg.Server.Address,
		Port:              cfg.Server.Port,
		Source:            fixture.NewStore(table),
		Table:             table.Name(),
		MaxFragment:       cfg.Server.MaxFragment,
		ChunksPerResponse: cfg.Server.ChunksPerResponse,
		HeartbeatEvery:    cfg.Server.HeartbeatEvery,
		ResetEvery:        cfg.Server.ResetEvery,
	})
	if err != nil {
		return nil, err
	}

	return app.CreateApp(&app.Config{
		ServiceName: "ReadRows Replay Server",
		StopTimeout: 5 * time.Second,
	}, srv)
}
