package feed

import (
	"encoding/json"
	"time"

	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/business/market/domain"
)

// Quantities travel as decimal strings so 64-bit values survive JSON consumers
// limited to doubles.

// MarketDTO is the wire form of a market snapshot.
type MarketDTO struct {
	ID          string   `json:"id"`
	MinTick     int64    `json:"minTick"`
	MaxTick     int64    `json:"maxTick"`
	TickSpacing int64    `json:"tickSpacing"`
	Bins        []string `json:"bins"`
	Total       string   `json:"total"`
	UpdatedAt   int64    `json:"updatedAt,omitempty"` // unix millis
}

// ToDomain parses and validates the snapshot.
func (d MarketDTO) ToDomain() (*domain.Market, error) {
	bins, err := wideint.ParseU64Slice("bins", d.Bins)
	if err != nil {
		return nil, err
	}
	total, err := wideint.ParseU64("total", d.Total)
	if err != nil {
		return nil, err
	}

	updated := time.Now()
	if d.UpdatedAt > 0 {
		updated = time.UnixMilli(d.UpdatedAt)
	}

	m := &domain.Market{
		ID:          d.ID,
		MinTick:     d.MinTick,
		MaxTick:     d.MaxTick,
		TickSpacing: d.TickSpacing,
		Bins:        bins,
		Total:       total,
		UpdatedAt:   updated,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MarketToDTO renders a snapshot for the wire.
func MarketToDTO(m *domain.Market) MarketDTO {
	bins := make([]string, len(m.Bins))
	for i, q := range m.Bins {
		bins[i] = wideint.FormatU64(q)
	}
	return MarketDTO{
		ID:          m.ID,
		MinTick:     m.MinTick,
		MaxTick:     m.MaxTick,
		TickSpacing: m.TickSpacing,
		Bins:        bins,
		Total:       wideint.FormatU64(m.Total),
		UpdatedAt:   m.UpdatedAt.UnixMilli(),
	}
}

// Stream message types.
const (
	MessageSnapshot = "snapshot"
	MessageBins     = "bins"
	MessageError    = "error"
)

// SubscribeRequest asks the feed to stream the given markets.
type SubscribeRequest struct {
	Op      string   `json:"op"`
	Markets []string `json:"markets"`
}

// Envelope is the common header of stream messages. The body is decoded by type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// BinsUpdate carries new quantities for some bins plus the resulting market total.
type BinsUpdate struct {
	MarketID   string   `json:"marketId"`
	Ticks      []int64  `json:"ticks"`
	Quantities []string `json:"quantities"`
	Total      string   `json:"total"`
}

// ErrorMessage is sent by the feed when a subscription fails.
type ErrorMessage struct {
	MarketID string `json:"marketId"`
	Message  string `json:"message"`
}
