// Package journal persists issued quotes in SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fd1az/rangebet/business/market/app"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
)

// Ensure SqliteStore implements QuoteJournal.
var _ app.QuoteJournal = (*SqliteStore)(nil)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SqliteStore is a QuoteJournal backed by a SQLite file.
// uint64 columns are stored as decimal text; SQLite integers are signed.
type SqliteStore struct {
	db *sql.DB
}

// Open migrates the database at path and opens the store.
func Open(path string) (*SqliteStore, error) {
	if err := EnsureMigrations(path); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeJournalError, path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeJournalError, path)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &SqliteStore{db: db}, nil
}

// Close closes the database.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record inserts q.
func (s *SqliteStore) Record(ctx context.Context, q *domain.Quote) error {
	ticks, err := json.Marshal(q.Ticks)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeJournalError, "encode ticks")
	}
	amounts := make([]string, len(q.Amounts))
	for i, a := range q.Amounts {
		amounts[i] = strconv.FormatUint(a, 10)
	}
	amountsJSON, err := json.Marshal(amounts)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeJournalError, "encode amounts")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (id, market_id, side, kind, ticks, amounts, budget, cost, total, precision, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID.String(), q.MarketID, string(q.Side), string(q.Kind),
		string(ticks), string(amountsJSON),
		strconv.FormatUint(q.Budget, 10), strconv.FormatUint(q.Cost, 10), strconv.FormatUint(q.Total, 10),
		q.Precision, q.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeJournalError, "insert quote")
	}
	return nil
}

// Recent returns up to limit quotes for marketID, newest first.
func (s *SqliteStore) Recent(ctx context.Context, marketID string, limit int) ([]*domain.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, side, kind, ticks, amounts, budget, cost, total, precision, created_at
		FROM quotes WHERE market_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, marketID, limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeJournalError, "query quotes")
	}
	defer rows.Close()

	quotes := []*domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeJournalError, "scan quote")
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeJournalError, "iterate quotes")
	}
	return quotes, nil
}

func scanQuote(rows *sql.Rows) (*domain.Quote, error) {
	var (
		id, marketID, side, kind, ticks, amounts string
		budget, cost, total, precision, created  string
	)
	if err := rows.Scan(&id, &marketID, &side, &kind, &ticks, &amounts, &budget, &cost, &total, &precision, &created); err != nil {
		return nil, err
	}

	q := &domain.Quote{
		MarketID:  marketID,
		Side:      domain.Side(side),
		Kind:      domain.Kind(kind),
		Precision: precision,
	}
	var err error
	if q.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(ticks), &q.Ticks); err != nil {
		return nil, err
	}
	var amountStrs []string
	if err = json.Unmarshal([]byte(amounts), &amountStrs); err != nil {
		return nil, err
	}
	q.Amounts = make([]uint64, len(amountStrs))
	for i, a := range amountStrs {
		if q.Amounts[i], err = strconv.ParseUint(a, 10, 64); err != nil {
			return nil, err
		}
	}
	if q.Budget, err = strconv.ParseUint(budget, 10, 64); err != nil {
		return nil, err
	}
	if q.Cost, err = strconv.ParseUint(cost, 10, 64); err != nil {
		return nil, err
	}
	if q.Total, err = strconv.ParseUint(total, 10, 64); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, err
	}
	return q, nil
}
