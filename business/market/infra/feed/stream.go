package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/wsconn"
)

// StreamConfig holds configuration for the snapshot stream.
type StreamConfig struct {
	URL            string
	Markets        []string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// streamMetrics holds OTEL metric instruments.
type streamMetrics struct {
	messages metric.Int64Counter
	rejected metric.Int64Counter
}

// Stream keeps the latest snapshot of each subscribed market from the websocket feed.
// Snapshots are replaced, never mutated, so readers may keep the pointers they get.
type Stream struct {
	config StreamConfig
	logger logger.LoggerInterface
	conn   *wsconn.Client

	mu      sync.RWMutex
	markets map[string]*domain.Market
	seen    map[string]time.Time

	metrics *streamMetrics
}

// NewStream creates a stream; call Connect to start it.
func NewStream(cfg StreamConfig, log logger.LoggerInterface) (*Stream, error) {
	wsCfg := wsconn.DefaultConfig(cfg.URL, "feed")
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		config:  cfg,
		logger:  log,
		conn:    conn,
		markets: make(map[string]*domain.Market),
		seen:    make(map[string]time.Time),
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	conn.OnConnect(s.subscribe)
	conn.OnMessage(s.handleMessage)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "feed stream state changed", "state", string(state), "error", err)
			return
		}
		log.Info(context.Background(), "feed stream state changed", "state", string(state))
	})

	return s, nil
}

func (s *Stream) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &streamMetrics{}

	s.metrics.messages, err = meter.Int64Counter(
		"feed_messages_total",
		metric.WithDescription("Stream messages received by type"),
	)
	if err != nil {
		return err
	}

	s.metrics.rejected, err = meter.Int64Counter(
		"feed_messages_rejected_total",
		metric.WithDescription("Stream messages dropped as malformed or inconsistent"),
	)
	return err
}

// Connect dials the feed. Drops are retried in the background.
func (s *Stream) Connect(ctx context.Context) error {
	return s.conn.Connect(ctx)
}

// Close stops the stream.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// IsConnected reports whether the websocket is up.
func (s *Stream) IsConnected() bool {
	return s.conn.IsConnected()
}

// Latest returns the last snapshot of marketID and when it was received.
func (s *Stream) Latest(marketID string) (*domain.Market, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[marketID]
	return m, s.seen[marketID], ok
}

// subscribe runs after every (re)connect.
func (s *Stream) subscribe(ctx context.Context) error {
	return s.conn.SendJSON(ctx, SubscribeRequest{Op: "subscribe", Markets: s.config.Markets})
}

func (s *Stream) handleMessage(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.reject(ctx, "unknown", err)
		return
	}
	s.metrics.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", env.Type)))

	var err error
	switch env.Type {
	case MessageSnapshot:
		err = s.applySnapshot(env.Data)
	case MessageBins:
		err = s.applyBins(env.Data)
	case MessageError:
		var msg ErrorMessage
		if json.Unmarshal(env.Data, &msg) == nil {
			s.logger.Warn(ctx, "feed reported error", "market", msg.MarketID, "message", msg.Message)
		}
	default:
		s.logger.Debug(ctx, "ignoring feed message", "type", env.Type)
	}
	if err != nil {
		s.reject(ctx, env.Type, err)
	}
}

func (s *Stream) reject(ctx context.Context, kind string, err error) {
	s.metrics.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("type", kind)))
	s.logger.Warn(ctx, "dropping feed message", "type", kind, "error", err)
}

func (s *Stream) applySnapshot(data json.RawMessage) error {
	var dto MarketDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err))
	}
	m, err := dto.ToDomain()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.markets[m.ID] = m
	s.seen[m.ID] = time.Now()
	s.mu.Unlock()
	return nil
}

// applyBins patches the latest snapshot. An update that leaves the snapshot
// inconsistent evicts the market so readers fall back to REST.
func (s *Stream) applyBins(data json.RawMessage) error {
	var upd BinsUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err))
	}
	if len(upd.Ticks) != len(upd.Quantities) {
		return apperror.Validation(apperror.CodeArrayLengthMismatch, upd.MarketID)
	}
	qs, err := wideint.ParseU64Slice("quantities", upd.Quantities)
	if err != nil {
		return err
	}
	total, err := wideint.ParseU64("total", upd.Total)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.markets[upd.MarketID]
	if !ok {
		return apperror.New(apperror.CodeMarketNotFound, apperror.WithContextf("bins before snapshot: %s", upd.MarketID))
	}

	next := current.Clone()
	for i, tick := range upd.Ticks {
		idx, err := next.BinIndex(tick)
		if err != nil {
			delete(s.markets, upd.MarketID)
			return err
		}
		next.Bins[idx] = qs[i]
	}
	next.Total = total
	next.UpdatedAt = time.Now()

	if err := next.Validate(); err != nil {
		delete(s.markets, upd.MarketID)
		return err
	}

	s.markets[upd.MarketID] = next
	s.seen[upd.MarketID] = time.Now()
	return nil
}
