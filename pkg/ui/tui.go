package ui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/pkg/ui/components"
)

const (
	// RefreshInterval is how often the snapshot is re-read.
	RefreshInterval = 2 * time.Second

	maxErrors     = 3
	priceDecimals = 4
)

// Quoter prices selections against a market. *app.QuoteService satisfies it.
type Quoter interface {
	Market(ctx context.Context, marketID string) (*domain.Market, error)
	QuoteBuy(ctx context.Context, marketID string, tick int64, amount uint64) (*domain.Quote, error)
	QuoteSell(ctx context.Context, marketID string, tick int64, amount uint64) (*domain.Quote, error)
	QuoteRangeBuy(ctx context.Context, marketID string, ticks []int64, amount, maxCollateral uint64) (*domain.Quote, error)
	QuoteRangeSell(ctx context.Context, marketID string, ticks []int64, amount uint64) (*domain.Quote, error)
	QuoteBudget(ctx context.Context, marketID string, ticks []int64, budget uint64) (*domain.Quote, error)
}

// Source is a Quoter bound to one curve precision.
type Source struct {
	Precision string
	Quoter    Quoter
}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the curve explorer.
type Model struct {
	ctx      context.Context
	marketID string
	sources  []Source
	active   int
	keys     KeyMap
	help     help.Model

	// Components
	bins    *components.BinsComponent
	quotes  *components.QuoteComponent
	history *components.HistoryComponent
	status  *components.StatusComponent
	stats   *components.StatsComponent

	// Selection
	market   *domain.Market
	cursor   int
	selected map[int]bool
	amount   uint64
	budget   uint64
	seq      uint64

	// State
	quitting     bool
	width        int
	height       int
	errors       []ErrorEntry
	latencyTotal time.Duration
	batches      int64
}

// New creates the explorer for marketID. sources must not be empty; p cycles
// through them in order.
func New(ctx context.Context, marketID string, sources []Source) Model {
	return Model{
		ctx:      ctx,
		marketID: marketID,
		sources:  sources,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		bins:     components.NewBinsComponent(20),
		quotes:   components.NewQuoteComponent(),
		history:  components.NewHistoryComponent(6),
		status:   components.NewStatusComponent(),
		stats:    components.NewStatsComponent(),
		selected: make(map[int]bool),
		errors:   make([]ErrorEntry, 0, maxErrors),
	}
}

// Init loads the market.
func (m Model) Init() tea.Cmd {
	return m.fetchMarket()
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) source() Source {
	return m.sources[m.active]
}

func (m Model) fetchMarket() tea.Cmd {
	ctx, q, id := m.ctx, m.source().Quoter, m.marketID
	return func() tea.Msg {
		start := time.Now()
		market, err := q.Market(ctx, id)
		return MarketMsg{Market: market, Err: err, Latency: time.Since(start)}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		return m, m.fetchMarket()

	case MarketMsg:
		return m.handleMarket(msg)

	case QuotesMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.handleQuotes(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.market == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.market.Bins)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.More):
		m.amount = double(m.amount)
	case key.Matches(msg, m.keys.Less):
		m.amount = halve(m.amount)
	case key.Matches(msg, m.keys.BudgetUp):
		m.budget = double(m.budget)
	case key.Matches(msg, m.keys.BudgetDown):
		m.budget = halve(m.budget)
	case key.Matches(msg, m.keys.Toggle):
		m.selected = toggled(m.selected, m.cursor)
	case key.Matches(msg, m.keys.Clear):
		m.selected = make(map[int]bool)
	case key.Matches(msg, m.keys.Precision):
		m.active = (m.active + 1) % len(m.sources)
	default:
		return m, nil
	}

	m.refreshBins()
	return m.requote()
}

func (m Model) handleMarket(msg MarketMsg) (tea.Model, tea.Cmd) {
	stats := m.stats.Stats()
	stats.Refreshes++
	m.stats.Update(stats)

	if msg.Err != nil {
		m.status.Update(components.ConnectionStatus{Name: "Snapshot", Detail: string(apperror.GetCode(msg.Err))})
		m.addError(msg.Err)
		return m, tickCmd()
	}

	m.status.Update(components.ConnectionStatus{
		Name:       "Snapshot",
		Connected:  true,
		Latency:    msg.Latency,
		LastUpdate: time.Now(),
	})

	m.market = msg.Market
	if m.cursor >= len(m.market.Bins) {
		m.cursor = len(m.market.Bins) - 1
	}
	for i := range m.selected {
		if i >= len(m.market.Bins) {
			delete(m.selected, i)
		}
	}
	if m.amount == 0 {
		m.amount = defaultSize(m.market.Total)
	}
	if m.budget == 0 {
		m.budget = defaultSize(m.market.Total)
	}

	m.refreshBins()
	next, quote := m.requote()
	return next, tea.Batch(quote, tickCmd())
}

func (m *Model) handleQuotes(msg QuotesMsg) {
	stats := m.stats.Stats()
	for _, err := range []error{msg.BuyErr, msg.SellErr, msg.SpendErr} {
		if err != nil {
			stats.Rejected++
		} else {
			stats.Quotes++
		}
	}
	m.batches++
	m.latencyTotal += msg.Latency
	stats.AvgLatencyMs = float64(m.latencyTotal.Microseconds()) / 1000 / float64(m.batches)
	m.stats.Update(stats)

	amount := formatU64(msg.Amount)
	rows := []components.QuoteRow{
		quoteRow("Buy", amount, msg.Buy, msg.BuyErr),
		quoteRow("Sell", amount, msg.Sell, msg.SellErr),
		quoteRow("Budget", "", msg.Spend, msg.SpendErr),
	}
	if msg.SpendErr == nil && msg.Spend != nil {
		rows[2].Quantity = formatU64(msg.Spend.Quantity())
	}
	m.quotes.Update(m.selectionLabel(), msg.Precision, rows)

	if msg.Buy != nil {
		row := components.HistoryRow{
			Time:      time.Now().Format("15:04:05"),
			Precision: msg.Precision,
			Ticks:     joinTicks(msg.Buy.Ticks),
			Amount:    amount,
			BuyCost:   formatU64(msg.Buy.Cost),
			SellCost:  "-",
		}
		if msg.Sell != nil {
			row.SellCost = formatU64(msg.Sell.Cost)
		}
		m.history.Add(row)
	}
}

// requote prices the current selection with the active source.
func (m Model) requote() (Model, tea.Cmd) {
	m.seq++
	ctx, src, id := m.ctx, m.source(), m.marketID
	seq, ticks, amount, budget := m.seq, m.selectedTicks(), m.amount, m.budget

	return m, func() tea.Msg {
		start := time.Now()
		msg := QuotesMsg{Seq: seq, Precision: src.Precision, Amount: amount, Budget: budget}
		q := src.Quoter
		if len(ticks) == 1 {
			msg.Buy, msg.BuyErr = q.QuoteBuy(ctx, id, ticks[0], amount)
			msg.Sell, msg.SellErr = q.QuoteSell(ctx, id, ticks[0], amount)
		} else {
			msg.Buy, msg.BuyErr = q.QuoteRangeBuy(ctx, id, ticks, amount, 0)
			msg.Sell, msg.SellErr = q.QuoteRangeSell(ctx, id, ticks, amount)
		}
		msg.Spend, msg.SpendErr = q.QuoteBudget(ctx, id, ticks, budget)
		msg.Latency = time.Since(start)
		return msg
	}
}

// selectedTicks returns the range members in grid order, or the cursor bin
// when no range is selected.
func (m Model) selectedTicks() []int64 {
	if len(m.selected) == 0 {
		return []int64{m.market.TickAt(m.cursor)}
	}
	idx := make([]int, 0, len(m.selected))
	for i := range m.selected {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	ticks := make([]int64, len(idx))
	for j, i := range idx {
		ticks[j] = m.market.TickAt(i)
	}
	return ticks
}

func (m Model) selectionLabel() string {
	return fmt.Sprintf("ticks %s  amount %s  budget %s", joinTicks(m.selectedTicks()), formatU64(m.amount), formatU64(m.budget))
}

func (m Model) refreshBins() {
	rows := make([]components.BinRow, len(m.market.Bins))
	for i, q := range m.market.Bins {
		rows[i] = components.BinRow{
			Tick:     m.market.TickAt(i),
			Quantity: q,
			Price:    m.market.SpotPrice(i, priceDecimals),
			InRange:  m.selected[i],
		}
	}
	m.bins.Update(m.market.ID, m.market.Total, rows)
	m.bins.SetCursor(m.cursor)
}

func (m *Model) addError(err error) {
	m.errors = append(m.errors, ErrorEntry{Message: err.Error(), Timestamp: time.Now()})
	if len(m.errors) > maxErrors {
		m.errors = m.errors[len(m.errors)-maxErrors:]
	}
}

// View renders the explorer.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" rangebet curve explorer "))
	b.WriteString("  ")
	b.WriteString(PrecisionStyle.Render(m.source().Precision))
	b.WriteString("  ")
	b.WriteString(m.status.View())
	b.WriteString("\n\n")

	if m.market == nil {
		b.WriteString(MutedValue.Render(fmt.Sprintf("  Loading market %s...", m.marketID)))
		b.WriteString("\n\n")
		b.WriteString(m.renderErrors())
		b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
		return b.String()
	}

	left := m.bins.View()
	right := m.quotes.View()
	if m.width > 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(m.width/2-2).Render(left),
			BoxStyle.Width(m.width/2-2).Render(right),
		))
	} else {
		b.WriteString(BoxStyle.Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(right))
	}
	b.WriteString("\n\n")

	b.WriteString(m.history.View())
	b.WriteString("\n\n")
	b.WriteString(MutedValue.Render(m.stats.View()))
	b.WriteString("\n\n")
	b.WriteString(m.renderErrors())
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderErrors() string {
	if len(m.errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorDanger).Render("ERRORS"))
	b.WriteString("\n")
	for _, e := range m.errors {
		ago := time.Since(e.Timestamp).Round(time.Second)
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", e.Message)))
		b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Run starts the explorer and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func quoteRow(label, quantity string, q *domain.Quote, err error) components.QuoteRow {
	row := components.QuoteRow{Label: label, Quantity: quantity}
	if err != nil {
		row.Err = string(apperror.GetCode(err))
		return row
	}
	row.Cost = formatU64(q.Cost)
	if qty := q.Quantity(); qty > 0 {
		row.AvgPrice = decimal.NewFromUint64(q.Cost).DivRound(decimal.NewFromUint64(qty), 6)
	}
	return row
}

func formatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func defaultSize(total uint64) uint64 {
	if total < 100 {
		return 1
	}
	return total / 100
}

func double(v uint64) uint64 {
	if v > math.MaxUint64/2 {
		return math.MaxUint64
	}
	return v * 2
}

func halve(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return v / 2
}

func toggled(set map[int]bool, i int) map[int]bool {
	out := make(map[int]bool, len(set)+1)
	for k := range set {
		out[k] = true
	}
	if set[i] {
		delete(out, i)
	} else {
		out[i] = true
	}
	return out
}

func joinTicks(ticks []int64) string {
	parts := make([]string, len(ticks))
	for i, t := range ticks {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return strings.Join(parts, ",")
}
