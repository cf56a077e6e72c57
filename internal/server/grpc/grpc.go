// Package grpc serves and reads the ReadRows service over gRPC.
package grpc

import (
	"cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"errors"
	"fmt"
	"github.com/litetable/litetable-db/pkg/proto"
	"github.com/rs/zerolog/log"
	grpc2 "google.golang.org/grpc"
	"net"
	"time"
)

const (
	defaultMaxFragment       = 64 * 1024
	defaultChunksPerResponse = 64
)

// Server implements the app.Dependency interface for a gRPC server
type Server struct {
	address  string
	port     int
	server   *grpc2.Server
	listener net.Listener
}

type Config struct {
	Address string
	Port    int
	Source  source
	// Table is the table answering litetable Read calls. Empty leaves them unavailable.
	Table string
	// MaxFragment is the largest value fragment put in one chunk.
	MaxFragment int
	// ChunksPerResponse caps the chunks grouped into one response.
	ChunksPerResponse int
	// HeartbeatEvery sends a progress marker after that many rows were skipped in a row.
	HeartbeatEvery int
	// ResetEvery makes every n-th row start, get reset, and be sent again.
	ResetEvery int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("address required"))
	}
	if c.Port == 0 {
		errGrp = append(errGrp, fmt.Errorf("port required"))
	}
	if c.Source == nil {
		errGrp = append(errGrp, fmt.Errorf("source required"))
	}
	if c.MaxFragment < 0 || c.ChunksPerResponse < 0 || c.HeartbeatEvery < 0 || c.ResetEvery < 0 {
		errGrp = append(errGrp, fmt.Errorf("chunking settings cannot be negative"))
	}

	return errors.Join(errGrp...)
}

func (c *Config) service() *readRows {
	svc := &readRows{
		source:            c.Source,
		maxFragment:       c.MaxFragment,
		chunksPerResponse: c.ChunksPerResponse,
		heartbeatEvery:    c.HeartbeatEvery,
		resetEvery:        c.ResetEvery,
	}
	if svc.maxFragment == 0 {
		svc.maxFragment = defaultMaxFragment
	}
	if svc.chunksPerResponse == 0 {
		svc.chunksPerResponse = defaultChunksPerResponse
	}
	return svc
}

// NewServer creates a new gRPC server instance
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	srv := grpc2.NewServer()
	bigtablepb.RegisterBigtableServer(srv, cfg.service())
	proto.RegisterLitetableServiceServer(srv, &lookup{source: cfg.Source, table: cfg.Table})

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Address, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on port %d: %w", cfg.Port, err)
	}

	return &Server{
		address:  cfg.Address,
		port:     cfg.Port,
		server:   srv,
		listener: lis,
	}, nil
}

func (s *Server) Start() error {
	log.Info().Msgf("gRPC server listening at %s:%d", s.address, s.port)

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.Serve(s.listener); err != nil {
			errCh <- err
			log.Error().Err(err).Msg("gRPC server failed")
			return
		}
		errCh <- nil
	}()

	// Block briefly for error or nil return
	select {
	case err := <-errCh:
		return err
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

func (s *Server) Stop() error {
	log.Info().Msg("Stopping gRPC server")
	s.server.GracefulStop()
	return nil
}

func (s *Server) Name() string {
	return "ReadRows gRPC Server"
}
