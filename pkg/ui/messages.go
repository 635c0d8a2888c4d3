package ui

import (
	"time"

	"github.com/fd1az/rangebet/business/market/domain"
)

// TickMsg triggers a snapshot refresh.
type TickMsg struct{}

// MarketMsg carries a refreshed snapshot, or the error fetching it.
type MarketMsg struct {
	Market  *domain.Market
	Err     error
	Latency time.Duration
}

// QuotesMsg carries the quotes for one selection. Seq ties it to the request so
// answers to superseded selections are dropped.
type QuotesMsg struct {
	Seq       uint64
	Precision string
	Amount    uint64
	Budget    uint64

	Buy       *domain.Quote
	BuyErr    error
	Sell      *domain.Quote
	SellErr   error
	Spend     *domain.Quote
	SpendErr  error
	Latency   time.Duration
}
