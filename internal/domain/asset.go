package domain

import (
	"strings"
	"time"
)

// Asset maps an internal symbol to the identifiers each price source uses.
type Asset struct {
	Symbol        string `json:"symbol" yaml:"symbol"`
	Name          string `json:"name" yaml:"name"`
	YahooTicker   string `json:"yahoo_ticker" yaml:"yahooTicker"`
	CoinGeckoID   string `json:"coingecko_id" yaml:"coingeckoId"`
	BinanceSymbol string `json:"binance_symbol" yaml:"binanceSymbol"`
}

// DefaultAssets is the built-in ticker dictionary.
var DefaultAssets = []Asset{
	{Symbol: "BTC", Name: "Bitcoin", YahooTicker: "BTC-USD", CoinGeckoID: "bitcoin", BinanceSymbol: "BTCUSDT"},
	{Symbol: "ETH", Name: "Ethereum", YahooTicker: "ETH-USD", CoinGeckoID: "ethereum", BinanceSymbol: "ETHUSDT"},
	{Symbol: "SOL", Name: "Solana", YahooTicker: "SOL-USD", CoinGeckoID: "solana", BinanceSymbol: "SOLUSDT"},
	{Symbol: "XRP", Name: "XRP", YahooTicker: "XRP-USD", CoinGeckoID: "ripple", BinanceSymbol: "XRPUSDT"},
	{Symbol: "USDT", Name: "Tether", YahooTicker: "USDT-USD", CoinGeckoID: "tether"},
	{Symbol: "USDC", Name: "USD Coin", YahooTicker: "USDC-USD", CoinGeckoID: "usd-coin", BinanceSymbol: "USDCUSDT"},
	{Symbol: "DAI", Name: "Dai", YahooTicker: "DAI-USD", CoinGeckoID: "dai"},
	{Symbol: "ADA", Name: "Cardano", YahooTicker: "ADA-USD", CoinGeckoID: "cardano", BinanceSymbol: "ADAUSDT"},
	{Symbol: "DOGE", Name: "Dogecoin", YahooTicker: "DOGE-USD", CoinGeckoID: "dogecoin", BinanceSymbol: "DOGEUSDT"},
	{Symbol: "DOT", Name: "Polkadot", YahooTicker: "DOT-USD", CoinGeckoID: "polkadot", BinanceSymbol: "DOTUSDT"},
	{Symbol: "AVAX", Name: "Avalanche", YahooTicker: "AVAX-USD", CoinGeckoID: "avalanche-2", BinanceSymbol: "AVAXUSDT"},
	{Symbol: "LINK", Name: "Chainlink", YahooTicker: "LINK-USD", CoinGeckoID: "chainlink", BinanceSymbol: "LINKUSDT"},
	{Symbol: "MATIC", Name: "Polygon", YahooTicker: "MATIC-USD", CoinGeckoID: "matic-network", BinanceSymbol: "MATICUSDT"},
}

// DefaultForums are the subreddits scanned when a request names none.
var DefaultForums = []string{"CryptoCurrency", "Bitcoin", "Ethereum", "CryptoMarkets"}

// SupportedIntervals lists the price sampling intervals.
var SupportedIntervals = []string{"5m", "15m", "30m", "1h", "4h", "1d"}

// SupportedPeriods lists the lookback windows.
var SupportedPeriods = []string{"1d", "5d", "7d", "1mo", "3mo", "6mo", "1y"}

var intervalDurations = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

var periodDurations = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"5d":  5 * 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"1mo": 30 * 24 * time.Hour,
	"3mo": 90 * 24 * time.Hour,
	"6mo": 180 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// IntervalDuration returns 0 for unknown intervals.
func IntervalDuration(interval string) time.Duration {
	return intervalDurations[strings.TrimSpace(interval)]
}

// PeriodDuration returns 0 for unknown periods.
func PeriodDuration(period string) time.Duration {
	return periodDurations[strings.TrimSpace(period)]
}

// AssetBook is a symbol-indexed view over a list of assets.
type AssetBook struct {
	bySymbol map[string]Asset
	symbols  []string
}

func NewAssetBook(assets []Asset) *AssetBook {
	b := &AssetBook{bySymbol: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		a.Symbol = NormalizeSymbol(a.Symbol)
		if a.Symbol == "" {
			continue
		}
		if _, exists := b.bySymbol[a.Symbol]; !exists {
			b.symbols = append(b.symbols, a.Symbol)
		}
		b.bySymbol[a.Symbol] = a
	}
	return b
}

func (b *AssetBook) Lookup(symbol string) (Asset, bool) {
	a, ok := b.bySymbol[NormalizeSymbol(symbol)]
	return a, ok
}

// Symbols returns symbols in registration order.
func (b *AssetBook) Symbols() []string {
	return append([]string(nil), b.symbols...)
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
