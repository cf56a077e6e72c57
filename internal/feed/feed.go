// Package feed publishes decoded rows to CDC subscribers as READ events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	v1 "github.com/litetable/litetable-cdc/go/v1"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/codec"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"net"
	"sync"
)

const (
	defaultBuffer = 1000
)

// Feed implements the CDC service and the app.Dependency interface.
type Feed struct {
	v1.UnimplementedCDCServiceServer
	address string
	port    int
	buffer  int

	mu          sync.Mutex
	subscribers map[string]*subscriber
	// history keeps the last events for subscribers asking for a replay.
	history []*v1.CDCEvent
	depth   int

	server   *grpc.Server
	done     chan struct{}
	stopOnce sync.Once
}

type Config struct {
	Address string
	Port    int
	// Buffer is the number of events queued per subscriber before events are dropped.
	Buffer int
	// ReplayDepth is the number of past events sent to subscribers that ask for a replay.
	ReplayDepth int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Address == "" {
		errGrp = append(errGrp, errors.New("address required"))
	}
	if c.Port == 0 {
		errGrp = append(errGrp, errors.New("port required"))
	}
	if c.Buffer < 0 || c.ReplayDepth < 0 {
		errGrp = append(errGrp, errors.New("buffer sizes cannot be negative"))
	}
	return errors.Join(errGrp...)
}

type subscriber struct {
	id     string
	events chan *v1.CDCEvent
}

// New creates a feed. It does not listen until Start is called.
func New(cfg *Config) (*Feed, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	buffer := cfg.Buffer
	if buffer == 0 {
		buffer = defaultBuffer
	}

	f := &Feed{
		address:     cfg.Address,
		port:        cfg.Port,
		buffer:      buffer,
		depth:       cfg.ReplayDepth,
		subscribers: make(map[string]*subscriber),
		done:        make(chan struct{}),
	}
	f.server = grpc.NewServer()
	v1.RegisterCDCServiceServer(f.server, f)
	return f, nil
}

// CDCStream registers a subscriber and streams events to it until it disconnects.
func (f *Feed) CDCStream(req *v1.CDCSubscriptionRequest, stream v1.CDCService_CDCStreamServer) error {
	id := req.GetClientId()
	if id == "" {
		id = uuid.NewString()
	}
	sub, err := f.subscribe(id, req.GetReplay())
	if err != nil {
		return err
	}
	defer f.unsubscribe(id)
	log.Info().Str("client", id).Msg("CDC subscriber connected")

	for {
		select {
		case evt := <-sub.events:
			if err := stream.Send(evt); err != nil {
				log.Warn().Err(err).Str("client", id).Msg("removing CDC subscriber due to send error")
				return err
			}
		case <-stream.Context().Done():
			log.Info().Str("client", id).Msg("CDC subscriber disconnected")
			return nil
		case <-f.done:
			return nil
		}
	}
}

func (f *Feed) subscribe(id string, replay bool) (*subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.subscribers[id]; exists {
		return nil, fmt.Errorf("client %s is already subscribed", id)
	}

	sub := &subscriber{id: id, events: make(chan *v1.CDCEvent, f.buffer+len(f.history))}
	if replay {
		for _, evt := range f.history {
			sub.events <- evt
		}
	}
	f.subscribers[id] = sub
	return sub, nil
}

func (f *Feed) unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscribers, id)
}

// Subscribers returns the number of connected subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// Emit publishes every cell of row as a READ event. A subscriber whose queue is full misses
// the event instead of slowing the scan down.
func (f *Feed) Emit(_ context.Context, row *chunk.Row) error {
	events, err := Events(row)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, evt := range events {
		f.remember(evt)
		for id, sub := range f.subscribers {
			select {
			case sub.events <- evt:
			default:
				log.Warn().Str("client", id).Str("rowKey", evt.RowKey).Msg("CDC subscriber is behind, event dropped")
			}
		}
	}
	return nil
}

func (f *Feed) remember(evt *v1.CDCEvent) {
	if f.depth == 0 {
		return
	}
	if len(f.history) == f.depth {
		copy(f.history, f.history[1:])
		f.history = f.history[:f.depth-1]
	}
	f.history = append(f.history, evt)
}

// Events converts the cells of a row to CDC events.
func Events(row *chunk.Row) ([]*v1.CDCEvent, error) {
	entries := row.Entries()
	out := make([]*v1.CDCEvent, 0, len(entries))
	for _, e := range entries {
		value, err := codec.Encode(e.Cell.Value)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", row.Key, err)
		}
		out = append(out, &v1.CDCEvent{
			Operation:     v1.LitetableOperation_READ,
			RowKey:        string(row.Key),
			Family:        e.Family,
			Qualifier:     string(e.Qualifier),
			Value:         value,
			TimestampUnix: e.Cell.TimestampMicros,
		})
	}
	return out, nil
}

func (f *Feed) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", f.address, f.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", f.port, err)
	}
	log.Info().Msgf("CDC gRPC server listening at %s:%d", f.address, f.port)
	return f.Serve(lis)
}

// Serve serves the feed on lis until Stop is called.
func (f *Feed) Serve(lis net.Listener) error {
	err := f.server.Serve(lis)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Error().Err(err).Msg("CDC gRPC server failed")
		return err
	}
	return nil
}

func (f *Feed) Stop() error {
	f.stopOnce.Do(func() {
		log.Info().Msg("Stopping CDC gRPC server")
		close(f.done)
		f.server.GracefulStop()
	})
	return nil
}

func (f *Feed) Name() string {
	return "CDC Feed"
}
