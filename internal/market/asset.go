// Package market holds the price records returned by the price API and the
// fetcher contract screens consume them through.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is one row of a market listing.
type Asset struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	Image                    string          `json:"image,omitempty"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	MarketCapRank            int             `json:"market_cap_rank,omitempty"`
	TotalVolume              decimal.Decimal `json:"total_volume"`
	High24h                  decimal.Decimal `json:"high_24h"`
	Low24h                   decimal.Decimal `json:"low_24h"`
	PriceChange24h           decimal.Decimal `json:"price_change_24h"`
	PriceChangePercentage24h decimal.Decimal `json:"price_change_percentage_24h"`
	LastUpdated              time.Time       `json:"last_updated,omitempty"`
}

// AssetDetail is the full record shown on a detail page. Money fields are in
// the currency the fetcher was configured with.
type AssetDetail struct {
	ID            string     `json:"id"`
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Homepage      string     `json:"homepage,omitempty"`
	Image         string     `json:"image,omitempty"`
	MarketCapRank int        `json:"market_cap_rank,omitempty"`
	Categories    []string   `json:"categories,omitempty"`
	GenesisDate   string     `json:"genesis_date,omitempty"`
	Currency      string     `json:"currency"`
	MarketData    MarketData `json:"market_data"`
}

// MarketData is the price block of an AssetDetail.
type MarketData struct {
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	TotalVolume              decimal.Decimal `json:"total_volume"`
	High24h                  decimal.Decimal `json:"high_24h"`
	Low24h                   decimal.Decimal `json:"low_24h"`
	AllTimeHigh              decimal.Decimal `json:"ath"`
	PriceChange24h           decimal.Decimal `json:"price_change_24h"`
	PriceChangePercentage24h decimal.Decimal `json:"price_change_percentage_24h"`
	CirculatingSupply        decimal.Decimal `json:"circulating_supply"`
	MaxSupply                decimal.Decimal `json:"max_supply"`
}

// Rising reports whether the 24h change is positive.
func (a Asset) Rising() bool {
	return a.PriceChangePercentage24h.IsPositive()
}
