// Package cryptoprice looks up cryptocurrency prices on Binance and exposes them as tools.
package cryptoprice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"crypto-mcp/internal/binance"
)

const defaultMaxConcurrency = 4

func init() {
	// Prices go out as JSON numbers without passing through float64.
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceResult is the outcome of a single price lookup. Failures are reported
// through Success and Error, never as a Go error.
type PriceResult struct {
	Success  bool             `json:"success"`
	Symbol   string           `json:"symbol"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Error    string           `json:"error,omitempty"`
	Message  string           `json:"message"`
}

// MultiPriceResult is the outcome of a multi-symbol lookup. Results keeps input order.
type MultiPriceResult struct {
	Success bool              `json:"success"`
	Results []PriceResult     `json:"results"`
	Prices  map[string]string `json:"prices,omitempty"`
	Errors  []string          `json:"errors,omitempty"`
	Count   int               `json:"count"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message"`
}

// Ticker fetches the latest price of a trading pair.
type Ticker interface {
	TickerPrice(ctx context.Context, pair string) (binance.Ticker, error)
}

// Options tune a Service. Zero values pick defaults.
type Options struct {
	QuoteCurrency  string
	CacheTTL       time.Duration
	MaxConcurrency int
	Logger         *slog.Logger
}

// Service performs price lookups.
type Service struct {
	ticker Ticker
	quote  string
	cache  *Cache
	ttl    time.Duration
	limit  int
	log    *slog.Logger
}

// NewService returns a Service backed by ticker. A zero CacheTTL disables caching.
func NewService(ticker Ticker, opts Options) *Service {
	s := &Service{
		ticker: ticker,
		quote:  opts.QuoteCurrency,
		ttl:    opts.CacheTTL,
		limit:  opts.MaxConcurrency,
		log:    opts.Logger,
	}
	if s.quote == "" {
		s.quote = DefaultQuoteCurrency
	}
	if s.limit <= 0 {
		s.limit = defaultMaxConcurrency
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.ttl > 0 {
		s.cache = NewCache()
	}
	return s
}

// QuoteCurrency is the currency prices are quoted in.
func (s *Service) QuoteCurrency() string { return s.quote }

// Price looks up one symbol. It never fails; errors are folded into the result.
func (s *Service) Price(ctx context.Context, symbol string) PriceResult {
	if NormalizeSymbol(symbol) == "" {
		return PriceResult{
			Symbol:  symbol,
			Error:   "No symbol provided",
			Message: "Please provide a cryptocurrency symbol",
		}
	}
	pair := TradingPair(symbol, s.quote)

	tk, err := s.lookup(ctx, pair)
	if err != nil {
		return s.failure(pair, err)
	}
	if !tk.Price.IsPositive() {
		return s.failure(pair, fmt.Errorf("%w: non-positive price %s", binance.ErrBadPayload, tk.Price))
	}

	formatted := FormatPrice(tk.Price)
	s.log.Info("price fetched", "pair", pair, "price", formatted)
	price := tk.Price
	return PriceResult{
		Success:  true,
		Symbol:   pair,
		Price:    &price,
		Currency: s.quote,
		Message:  fmt.Sprintf("Current price of %s is $%s", pair, formatted),
	}
}

func (s *Service) lookup(ctx context.Context, pair string) (binance.Ticker, error) {
	if s.cache != nil {
		if tk, ok := s.cache.Get(pair); ok {
			return tk, nil
		}
	}
	s.log.Debug("fetching price", "pair", pair)
	tk, err := s.ticker.TickerPrice(ctx, pair)
	if err != nil {
		return binance.Ticker{}, err
	}
	if s.cache != nil {
		s.cache.Set(pair, tk, s.ttl)
	}
	return tk, nil
}

func (s *Service) failure(pair string, err error) PriceResult {
	res := PriceResult{Symbol: pair}
	var se *binance.StatusError
	switch {
	case errors.As(err, &se):
		res.Error = fmt.Sprintf("Error fetching price for %s: %s", pair, se)
		res.Message = fmt.Sprintf("Failed to get price for %s. Please check if the symbol is correct.", pair)
	case errors.Is(err, binance.ErrBadPayload):
		res.Error = fmt.Sprintf("Error fetching price for %s: %v", pair, err)
		res.Message = fmt.Sprintf("Failed to get price for %s. The exchange returned an unexpected response.", pair)
	default:
		res.Error = fmt.Sprintf("Network error while fetching %s: %v", pair, err)
		res.Message = "Network error occurred. Please try again later."
	}
	s.log.Error("price lookup failed", "pair", pair, "error", err)
	return res
}

// Prices looks up a comma-separated list of symbols concurrently.
// Individual failures do not stop the others.
func (s *Service) Prices(ctx context.Context, symbols string) MultiPriceResult {
	list := SplitSymbols(symbols)
	if len(list) == 0 {
		return MultiPriceResult{
			Results: []PriceResult{},
			Error:   "No symbols provided",
			Message: "Please provide at least one cryptocurrency symbol",
		}
	}
	s.log.Info("fetching prices", "count", len(list))

	results := make([]PriceResult, len(list))
	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, sym := range list {
		g.Go(func() error {
			results[i] = s.Price(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	out := MultiPriceResult{Results: results, Prices: map[string]string{}}
	for i, r := range results {
		if r.Success {
			out.Prices[r.Symbol] = FormatPrice(*r.Price)
			out.Count++
			continue
		}
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", list[i], r.Error))
	}

	if out.Count == 0 {
		out.Prices = nil
		out.Message = "Failed to retrieve any prices"
		return out
	}
	out.Success = len(out.Errors) == 0
	out.Message = fmt.Sprintf("Successfully retrieved %d price(s)", out.Count)
	if len(out.Errors) > 0 {
		out.Message += fmt.Sprintf(", %d failed", len(out.Errors))
	}
	return out
}

// Prefetch warms the cache for symbols and reports how many lookups succeeded.
// Without a cache it still performs the lookups.
func (s *Service) Prefetch(ctx context.Context, symbols []string) int {
	n := 0
	for _, r := range s.Prices(ctx, strings.Join(symbols, ",")).Results {
		if r.Success {
			n++
		}
	}
	return n
}
