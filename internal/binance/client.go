// Package binance provides a minimal client for the Binance public ticker API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public Binance REST API.
const DefaultBaseURL = "https://api.binance.com"

const tickerPricePath = "/api/v3/ticker/price"

// ErrBadPayload is returned when a 200 response does not carry a usable price.
var ErrBadPayload = errors.New("unparsable ticker payload")

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	// Msg is the exchange's error message, when the body carried one.
	Msg string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Client is a minimal HTTP client for the ticker price endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a new client. If httpClient is nil, a default with 10s timeout is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Ticker is the latest price for one trading pair.
type Ticker struct {
	Symbol string
	Price  decimal.Decimal
}

// tickerResponse accepts price as a quoted string or a bare JSON number.
type tickerResponse struct {
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// TickerPrice fetches the latest price for a trading pair such as BTCUSDT.
// Transport failures are returned as-is so callers can tell them apart from
// *StatusError and ErrBadPayload.
func (c *Client) TickerPrice(ctx context.Context, pair string) (Ticker, error) {
	reqURL, err := c.buildTickerURL(pair)
	if err != nil {
		return Ticker{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Ticker{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Ticker{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Ticker{}, err
	}
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		return Ticker{}, &StatusError{Code: resp.StatusCode, Msg: ae.Msg}
	}

	var tr tickerResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Ticker{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if tr.Price == nil {
		return Ticker{}, fmt.Errorf("%w: missing price", ErrBadPayload)
	}
	symbol := tr.Symbol
	if symbol == "" {
		symbol = pair
	}
	return Ticker{Symbol: symbol, Price: *tr.Price}, nil
}

// buildTickerURL composes the ticker URL with the symbol query param.
func (c *Client) buildTickerURL(pair string) (string, error) {
	u, err := url.Parse(c.BaseURL + tickerPricePath)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("symbol", pair)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
