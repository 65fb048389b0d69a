package cryptoprice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultQuoteCurrency is appended to bare symbols to form a trading pair.
const DefaultQuoteCurrency = "USDT"

// nameToSymbol maps common coin names to their tickers.
var nameToSymbol = map[string]string{
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
	"binance":   "BNB",
	"cardano":   "ADA",
	"ripple":    "XRP",
	"solana":    "SOL",
	"dogecoin":  "DOGE",
	"polkadot":  "DOT",
	"avalanche": "AVAX",
	"shiba":     "SHIB",
	"polygon":   "MATIC",
	"litecoin":  "LTC",
}

// NormalizeSymbol trims and upper-cases a symbol, resolving coin names such as "bitcoin" to "BTC".
func NormalizeSymbol(symbol string) string {
	s := strings.TrimSpace(symbol)
	if mapped, ok := nameToSymbol[strings.ToLower(s)]; ok {
		return mapped
	}
	return strings.ToUpper(s)
}

// TradingPair normalizes symbol and appends quote unless it is already there.
func TradingPair(symbol, quote string) string {
	if quote == "" {
		quote = DefaultQuoteCurrency
	}
	quote = strings.ToUpper(quote)
	s := NormalizeSymbol(symbol)
	if strings.HasSuffix(s, quote) {
		return s
	}
	return s + quote
}

// SplitSymbols splits a comma-separated list, dropping blanks.
func SplitSymbols(symbols string) []string {
	parts := strings.Split(symbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var one = decimal.NewFromInt(1)

// FormatPrice renders a price for humans: prices of 1 or more get up to 4
// decimals and thousands separators, smaller prices up to 8 decimals.
// Trailing zeros are dropped.
func FormatPrice(p decimal.Decimal) string {
	places := int32(8)
	if p.Abs().GreaterThanOrEqual(one) {
		places = 4
	}
	s := p.StringFixed(places)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	intPart = groupThousands(intPart)
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
