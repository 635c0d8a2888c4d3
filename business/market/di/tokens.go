// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/rangebet/business/market/app"
	"github.com/fd1az/rangebet/business/market/infra/api"
	"github.com/fd1az/rangebet/business/market/infra/feed"
	"github.com/fd1az/rangebet/business/market/infra/journal"
	"github.com/fd1az/rangebet/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("market.QuoteService")
)

// Private dependency tokens - internal to market module
var (
	FeedStream = di.NewToken[*feed.Stream]("market:feedStream")
	FeedHTTP   = di.NewToken[*feed.HTTPClient]("market:feedHTTP")
	Provider   = di.NewToken[*feed.Provider]("market:provider")
	Journal    = di.NewToken[*journal.SqliteStore]("market:journal")
	APIServer  = di.NewToken[*api.Server]("market:apiServer")
)

func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

// GetFeedStream returns nil when no websocket url is configured.
func GetFeedStream(c di.ServiceRegistry) *feed.Stream {
	return di.GetToken(c, FeedStream)
}

// GetFeedHTTP returns nil when no http url is configured.
func GetFeedHTTP(c di.ServiceRegistry) *feed.HTTPClient {
	return di.GetToken(c, FeedHTTP)
}

func GetProvider(c di.ServiceRegistry) *feed.Provider {
	return di.GetToken(c, Provider)
}

// GetJournal returns nil when the journal is disabled.
func GetJournal(c di.ServiceRegistry) *journal.SqliteStore {
	return di.GetToken(c, Journal)
}

func GetAPIServer(c di.ServiceRegistry) *api.Server {
	return di.GetToken(c, APIServer)
}
