// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/fd1az/rangebet/business/market/domain"
)

// SnapshotProvider supplies the current state of a market.
type SnapshotProvider interface {
	// Snapshot returns a validated snapshot. Callers must not mutate it.
	Snapshot(ctx context.Context, marketID string) (*domain.Market, error)
}

// QuoteJournal persists issued quotes.
type QuoteJournal interface {
	Record(ctx context.Context, q *domain.Quote) error

	// Recent returns up to limit quotes for marketID, newest first.
	Recent(ctx context.Context, marketID string, limit int) ([]*domain.Quote, error)
}
