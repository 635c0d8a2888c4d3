package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/business/market/app"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/business/market/infra/feed"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
)

const (
	maxBodyBytes   = 1 << 20
	defaultMaxBins = 256
)

// Handlers serves quote and curve endpoints.
type Handlers struct {
	quotes   *app.QuoteService
	curve    *wideint.Adapter
	validate *validator.Validate
	logger   logger.LoggerInterface
}

// NewHandlers creates the endpoint handlers. Requests naming more than maxBins
// bins are rejected; maxBins <= 0 selects the default.
func NewHandlers(quotes *app.QuoteService, curve *wideint.Adapter, maxBins int, log logger.LoggerInterface) *Handlers {
	if maxBins <= 0 {
		maxBins = defaultMaxBins
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterValidation("maxbins", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() <= maxBins
	})
	return &Handlers{
		quotes:   quotes,
		curve:    curve,
		validate: validate,
		logger:   log,
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/markets/{id}", h.getMarket).Methods(http.MethodGet)
	v1.HandleFunc("/markets/{id}/quotes", h.recentQuotes).Methods(http.MethodGet)
	v1.HandleFunc("/markets/{id}/quotes/buy", h.quoteBuy).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/sell", h.quoteSell).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/range-buy", h.quoteRangeBuy).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/range-sell", h.quoteRangeSell).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/basket", h.quoteBasket).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/budget", h.quoteBudget).Methods(http.MethodPost)
	v1.HandleFunc("/markets/{id}/quotes/amount-for-cost", h.quoteAmountForCost).Methods(http.MethodPost)

	v1.HandleFunc("/curve/buy", h.curveBuy).Methods(http.MethodPost)
	v1.HandleFunc("/curve/sell", h.curveSell).Methods(http.MethodPost)
	v1.HandleFunc("/curve/multi-buy", h.curveMultiBuy).Methods(http.MethodPost)
	v1.HandleFunc("/curve/multi-sell", h.curveMultiSell).Methods(http.MethodPost)
	v1.HandleFunc("/curve/budget", h.curveBudget).Methods(http.MethodPost)
	v1.HandleFunc("/curve/max-u64", h.maxU64).Methods(http.MethodGet)
	v1.HandleFunc("/curve/u64-range", h.u64Range).Methods(http.MethodGet)
}

// Markets

func (h *Handlers) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := h.quotes.Market(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed.MarketToDTO(m))
}

func (h *Handlers) recentQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, apperror.Validation(apperror.CodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	quotes, err := h.quotes.RecentQuotes(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = toQuoteResponse(q)
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": out})
}

// Quotes

func (h *Handlers) quoteBuy(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.quotes.QuoteBuy)
}

func (h *Handlers) quoteSell(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.quotes.QuoteSell)
}

type singleFn func(ctx context.Context, marketID string, tick int64, amount uint64) (*domain.Quote, error)

func (h *Handlers) single(w http.ResponseWriter, r *http.Request, fn singleFn) {
	var req singleRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := wideint.ParseU64("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(fn(r.Context(), mux.Vars(r)["id"], *req.Tick, amount))
}

func (h *Handlers) quoteRangeBuy(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := wideint.ParseU64("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	maxCollateral, err := optionalU64("maxCollateral", req.MaxCollateral)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(h.quotes.QuoteRangeBuy(r.Context(), mux.Vars(r)["id"], req.Ticks, amount, maxCollateral))
}

func (h *Handlers) quoteRangeSell(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !h.decode(w, r, &req) {
		return
	}
	amount, err := wideint.ParseU64("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(h.quotes.QuoteRangeSell(r.Context(), mux.Vars(r)["id"], req.Ticks, amount))
}

func (h *Handlers) quoteBasket(w http.ResponseWriter, r *http.Request) {
	var req basketRequest
	if !h.decode(w, r, &req) {
		return
	}
	amounts, err := wideint.ParseU64Slice("amounts", req.Amounts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	maxCollateral, err := optionalU64("maxCollateral", req.MaxCollateral)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(h.quotes.QuoteBasket(r.Context(), mux.Vars(r)["id"], req.Ticks, amounts, maxCollateral))
}

func (h *Handlers) quoteBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !h.decode(w, r, &req) {
		return
	}
	budget, err := wideint.ParseU64("budget", req.Budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(h.quotes.QuoteBudget(r.Context(), mux.Vars(r)["id"], req.Ticks, budget))
}

func (h *Handlers) quoteAmountForCost(w http.ResponseWriter, r *http.Request) {
	var req amountForCostRequest
	if !h.decode(w, r, &req) {
		return
	}
	budget, err := wideint.ParseU64("budget", req.Budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondQuote(w, r)(h.quotes.QuoteAmountForCost(r.Context(), mux.Vars(r)["id"], *req.Tick, budget))
}

func (h *Handlers) respondQuote(w http.ResponseWriter, r *http.Request) func(*domain.Quote, error) {
	return func(q *domain.Quote, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toQuoteResponse(q))
	}
}

// Curve

func (h *Handlers) curveBuy(w http.ResponseWriter, r *http.Request) {
	var req curveSingleRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondValue(w, r)(h.curve.BuyCost(r.Context(), req.X, req.Q, req.T))
}

func (h *Handlers) curveSell(w http.ResponseWriter, r *http.Request) {
	var req curveSingleRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondValue(w, r)(h.curve.SellCost(r.Context(), req.X, req.Q, req.T))
}

func (h *Handlers) curveMultiBuy(w http.ResponseWriter, r *http.Request) {
	var req curveMultiRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondValue(w, r)(h.curve.MultiBuyCost(r.Context(), req.X, req.Qs, req.T))
}

func (h *Handlers) curveMultiSell(w http.ResponseWriter, r *http.Request) {
	var req curveMultiRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondValue(w, r)(h.curve.MultiSellCost(r.Context(), req.X, req.Qs, req.T))
}

func (h *Handlers) curveBudget(w http.ResponseWriter, r *http.Request) {
	var req curveBudgetRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondValue(w, r)(h.curve.XForBudget(r.Context(), req.Budget, req.Qs, req.T))
}

func (h *Handlers) maxU64(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, valueResponse{Value: wideint.MaxU64()})
}

func (h *Handlers) u64Range(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("value")
	writeJSON(w, http.StatusOK, rangeCheckResponse{Value: v, WithinRange: wideint.IsWithinU64Range(v)})
}

func respondValue(w http.ResponseWriter, r *http.Request) func(string, error) {
	return func(v string, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, valueResponse{Value: v})
	}
}

// Helpers

// decode reads a JSON body into dst and validates it. On failure the error
// response is already written.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext("request body"), apperror.WithCause(err), apperror.WithStatusCode(http.StatusBadRequest)))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, r, apperror.Validation(apperror.CodeValidationError, describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func optionalU64(field, s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return wideint.ParseU64(field, s)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.Wrap(err, apperror.CodeInternalError, "")
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		appErr = appErr.WithTraceID(sc.TraceID().String())
	}
	writeJSON(w, appErr.StatusCode, appErr.ToResponse())
}
