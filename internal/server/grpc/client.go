package grpc

import (
	"cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"context"
	"errors"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/resume"
	grpc2 "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client opens ReadRows streams.
type Client struct {
	client bigtablepb.BigtableClient
	closer func() error
}

type ClientConfig struct {
	// Target is the server address, host:port.
	Target string
	// Options are appended to the defaults, which dial without TLS.
	Options []grpc2.DialOption
}

func (c *ClientConfig) validate() error {
	if c.Target == "" {
		return errors.New("target required")
	}
	return nil
}

// Dial creates a client for the target. No connection is made until the first call.
func Dial(cfg *ClientConfig) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := append([]grpc2.DialOption{
		grpc2.WithTransportCredentials(insecure.NewCredentials()),
	}, cfg.Options...)

	conn, err := grpc2.NewClient(cfg.Target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: bigtablepb.NewBigtableClient(conn), closer: conn.Close}, nil
}

// NewClient wraps an existing connection. Closing the client leaves conn open.
func NewClient(conn grpc2.ClientConnInterface) *Client {
	return &Client{client: bigtablepb.NewBigtableClient(conn)}
}

// ReadRows sends req and returns the response stream. The stream ends when ctx is done.
func (c *Client) ReadRows(ctx context.Context, req *resume.Request) (*Stream, error) {
	stream, err := c.client.ReadRows(ctx, NewReadRowsRequest(req))
	if err != nil {
		return nil, err
	}
	return &Stream{stream: stream}, nil
}

// Close releases the connection when the client dialed it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Stream is the client side of one ReadRows call.
type Stream struct {
	stream bigtablepb.Bigtable_ReadRowsClient
}

// Recv returns the next response, io.EOF once the server finished.
func (s *Stream) Recv() (*chunk.Response, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return responseFromProto(resp), nil
}
