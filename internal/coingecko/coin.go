package coingecko

import (
	"strings"

	"github.com/artpar/coinfav/internal/market"
	"github.com/shopspring/decimal"
)

// coinResponse is the subset of GET /coins/{id} the client reads.
type coinResponse struct {
	ID            string            `json:"id"`
	Symbol        string            `json:"symbol"`
	Name          string            `json:"name"`
	Description   map[string]string `json:"description"`
	Categories    []string          `json:"categories"`
	GenesisDate   string            `json:"genesis_date"`
	MarketCapRank int               `json:"market_cap_rank"`
	Links         struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Image struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice             map[string]decimal.Decimal `json:"current_price"`
		MarketCap                map[string]decimal.Decimal `json:"market_cap"`
		TotalVolume              map[string]decimal.Decimal `json:"total_volume"`
		High24h                  map[string]decimal.Decimal `json:"high_24h"`
		Low24h                   map[string]decimal.Decimal `json:"low_24h"`
		AllTimeHigh              map[string]decimal.Decimal `json:"ath"`
		PriceChange24h           decimal.Decimal            `json:"price_change_24h"`
		PriceChangePercentage24h decimal.Decimal            `json:"price_change_percentage_24h"`
		CirculatingSupply        decimal.Decimal            `json:"circulating_supply"`
		MaxSupply                decimal.Decimal            `json:"max_supply"`
	} `json:"market_data"`
}

func (r coinResponse) toDetail(currency string) *market.AssetDetail {
	md := r.MarketData
	detail := &market.AssetDetail{
		ID:            r.ID,
		Symbol:        r.Symbol,
		Name:          r.Name,
		Description:   strings.TrimSpace(r.Description["en"]),
		Image:         firstNonEmpty(r.Image.Large, r.Image.Small, r.Image.Thumb),
		MarketCapRank: r.MarketCapRank,
		GenesisDate:   r.GenesisDate,
		Currency:      currency,
		MarketData: market.MarketData{
			CurrentPrice:             md.CurrentPrice[currency],
			MarketCap:                md.MarketCap[currency],
			TotalVolume:              md.TotalVolume[currency],
			High24h:                  md.High24h[currency],
			Low24h:                   md.Low24h[currency],
			AllTimeHigh:              md.AllTimeHigh[currency],
			PriceChange24h:           md.PriceChange24h,
			PriceChangePercentage24h: md.PriceChangePercentage24h,
			CirculatingSupply:        md.CirculatingSupply,
			MaxSupply:                md.MaxSupply,
		},
	}

	for _, c := range r.Categories {
		if c != "" {
			detail.Categories = append(detail.Categories, c)
		}
	}
	detail.Homepage = firstNonEmpty(r.Links.Homepage...)
	return detail
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
