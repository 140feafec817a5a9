package components

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
)

func testDetail() *market.AssetDetail {
	return &market.AssetDetail{
		ID:            "bitcoin",
		Symbol:        "btc",
		Name:          "Bitcoin",
		MarketCapRank: 1,
		Currency:      "usd",
		Homepage:      "http://www.bitcoin.org",
		Description:   "Bitcoin is the first decentralized cryptocurrency.",
		MarketData: market.MarketData{
			CurrentPrice:             decimal.RequireFromString("65000.5"),
			MarketCap:                decimal.RequireFromString("1280000000000"),
			PriceChangePercentage24h: decimal.RequireFromString("-2"),
		},
	}
}

func TestDetailPanel(t *testing.T) {
	t.Run("open shows loading", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("bitcoin")

		assert.Equal(t, "bitcoin", p.ID())
		assert.Contains(t, p.View(), "Loading...")
		assert.Equal(t, "bitcoin", p.CopyText())
	})

	t.Run("success", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("bitcoin")
		p.SetState(screen.Success[*market.AssetDetail]{Payload: testDetail()})

		view := p.View()
		assert.Contains(t, view, "Bitcoin (BTC)")
		assert.Contains(t, view, "65000.50 USD")
		assert.Contains(t, view, "-2.00%")
		assert.Contains(t, view, "1.28T")
		assert.Contains(t, view, "http://www.bitcoin.org")
		assert.Contains(t, view, "first decentralized")
		assert.Equal(t, "bitcoin 65000.50 USD", p.CopyText())
	})

	t.Run("error", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("nope")
		p.SetState(screen.Error{Message: "price api: 404 Not Found: coin not found"})

		assert.Contains(t, p.View(), "coin not found")
	})

	t.Run("favorite mark", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("bitcoin")
		assert.Contains(t, p.View(), "☆ bitcoin")

		p.SetFavorite(true)
		assert.True(t, p.Favorite())
		assert.Contains(t, p.View(), "★ bitcoin")
	})

	t.Run("reopen resets state", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("bitcoin")
		p.SetState(screen.Success[*market.AssetDetail]{Payload: testDetail()})
		p.Open("ethereum")

		assert.IsType(t, screen.Loading{}, p.State())
		assert.Equal(t, "ethereum", p.ID())
	})

	t.Run("ignores a detail for another asset", func(t *testing.T) {
		p := NewDetailPanel()
		p.Open("ethereum")
		p.SetState(screen.Success[*market.AssetDetail]{Payload: testDetail()})

		assert.IsType(t, screen.Loading{}, p.State())
		assert.Equal(t, "ethereum", p.CopyText())
	})
}
