package cryptoprice

import (
	"context"

	"crypto-mcp/internal/registry"
)

const (
	// ModuleName is the registry name of the price module.
	ModuleName = "CryptoPrice"
	// ModuleVersion is reported in server listings.
	ModuleVersion = "1.0.0"

	// GetCryptoPriceName is the canonical name for the single-symbol tool.
	GetCryptoPriceName = "get_crypto_price"
	// GetMultiplePricesName is the canonical name for the multi-symbol tool.
	GetMultiplePricesName = "get_multiple_prices"
)

// Module exposes a Service as registry tools.
type Module struct {
	*registry.Toolset
	svc *Service
}

// NewModule builds the tool table for svc.
func NewModule(svc *Service) *Module {
	m := &Module{Toolset: registry.NewToolset(ModuleName, ModuleVersion), svc: svc}
	m.Add(registry.Tool{
		Name:        GetCryptoPriceName,
		Description: "Get current real-time cryptocurrency price from Binance exchange",
		InputSchema: registry.StringParams(map[string]string{
			"symbol": "Cryptocurrency symbol (e.g., 'BTC', 'ETH', 'ADA')",
		}, "symbol"),
	}, m.getCryptoPrice)
	m.Add(registry.Tool{
		Name:        GetMultiplePricesName,
		Description: "Get prices for multiple cryptocurrencies at once from Binance",
		InputSchema: registry.StringParams(map[string]string{
			"symbols": "Comma-separated list of cryptocurrency symbols (e.g., 'BTC,ETH,ADA')",
		}, "symbols"),
	}, m.getMultiplePrices)
	return m
}

// Service returns the underlying price service.
func (m *Module) Service() *Service { return m.svc }

func (m *Module) getCryptoPrice(ctx context.Context, args map[string]any) (any, error) {
	symbol, _ := args["symbol"].(string)
	return m.svc.Price(ctx, symbol), nil
}

func (m *Module) getMultiplePrices(ctx context.Context, args map[string]any) (any, error) {
	symbols, _ := args["symbols"].(string)
	return m.svc.Prices(ctx, symbols), nil
}
