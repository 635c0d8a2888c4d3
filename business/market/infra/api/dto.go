package api

import (
	"time"

	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/business/market/domain"
)

// Token amounts and collateral are decimal strings on the wire. Bin lists are
// capped by the "maxbins" tag, bound to the configured limit in NewHandlers.

type singleRequest struct {
	Tick   *int64 `json:"tick" validate:"required"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type rangeRequest struct {
	Ticks         []int64 `json:"ticks" validate:"required,min=1,maxbins"`
	Amount        string  `json:"amount" validate:"required,numeric"`
	MaxCollateral string  `json:"maxCollateral" validate:"omitempty,numeric"`
}

type basketRequest struct {
	Ticks         []int64  `json:"ticks" validate:"required,min=1,maxbins"`
	Amounts       []string `json:"amounts" validate:"required,min=1,maxbins,dive,numeric"`
	MaxCollateral string   `json:"maxCollateral" validate:"omitempty,numeric"`
}

type budgetRequest struct {
	Ticks  []int64 `json:"ticks" validate:"required,min=1,maxbins"`
	Budget string  `json:"budget" validate:"required,numeric"`
}

type amountForCostRequest struct {
	Tick   *int64 `json:"tick" validate:"required"`
	Budget string `json:"budget" validate:"required,numeric"`
}

type curveSingleRequest struct {
	X string `json:"x" validate:"required"`
	Q string `json:"q" validate:"required"`
	T string `json:"t" validate:"required"`
}

type curveMultiRequest struct {
	X  string   `json:"x" validate:"required"`
	Qs []string `json:"qs" validate:"required,maxbins"`
	T  string   `json:"t" validate:"required"`
}

type curveBudgetRequest struct {
	Budget string   `json:"budget" validate:"required"`
	Qs     []string `json:"qs" validate:"required,maxbins"`
	T      string   `json:"t" validate:"required"`
}

type valueResponse struct {
	Value string `json:"value"`
}

type rangeCheckResponse struct {
	Value       string `json:"value"`
	WithinRange bool   `json:"withinRange"`
}

type quoteResponse struct {
	ID           string   `json:"id"`
	MarketID     string   `json:"marketId"`
	Side         string   `json:"side"`
	Kind         string   `json:"kind"`
	Ticks        []int64  `json:"ticks"`
	Amounts      []string `json:"amounts"`
	Budget       string   `json:"budget,omitempty"`
	Cost         string   `json:"cost"`
	Total        string   `json:"total"`
	AveragePrice float64  `json:"averagePrice"`
	Precision    string   `json:"precision"`
	CreatedAt    string   `json:"createdAt"`
}

func toQuoteResponse(q *domain.Quote) quoteResponse {
	amounts := make([]string, len(q.Amounts))
	for i, a := range q.Amounts {
		amounts[i] = wideint.FormatU64(a)
	}
	resp := quoteResponse{
		ID:           q.ID.String(),
		MarketID:     q.MarketID,
		Side:         string(q.Side),
		Kind:         string(q.Kind),
		Ticks:        q.Ticks,
		Amounts:      amounts,
		Cost:         wideint.FormatU64(q.Cost),
		Total:        wideint.FormatU64(q.Total),
		AveragePrice: q.AveragePrice(),
		Precision:    q.Precision,
		CreatedAt:    q.CreatedAt.Format(time.RFC3339Nano),
	}
	if q.Kind == domain.KindBudget || q.Kind == domain.KindAmountForCost {
		resp.Budget = wideint.FormatU64(q.Budget)
	}
	return resp
}
