package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/coinfav/internal/retrier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsBody = `[
 {"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png",
  "current_price":67187.12,"market_cap":1321262691813,"market_cap_rank":1,
  "total_volume":31337,"high_24h":68000,"low_24h":66000.5,
  "price_change_24h":-120.5,"price_change_percentage_24h":-0.17923,
  "last_updated":"2024-05-01T10:00:00.000Z"},
 {"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png",
  "current_price":3050.2,"market_cap":366000000000,"market_cap_rank":2,
  "total_volume":null,"high_24h":null,"low_24h":null,
  "price_change_24h":12,"price_change_percentage_24h":0.4,
  "last_updated":"2024-05-01T10:00:00.000Z"}
]`

const coinBody = `{
 "id":"bitcoin","symbol":"btc","name":"Bitcoin",
 "description":{"en":"  Bitcoin is the first decentralized cryptocurrency.  "},
 "categories":["Cryptocurrency",null,"Layer 1 (L1)"],
 "genesis_date":"2009-01-03","market_cap_rank":1,
 "links":{"homepage":["","http://www.bitcoin.org",""]},
 "image":{"thumb":"t.png","small":"s.png","large":"l.png"},
 "market_data":{
  "current_price":{"usd":67187.12,"eur":62000},
  "market_cap":{"usd":1321262691813},
  "total_volume":{"usd":31337},
  "high_24h":{"usd":68000},
  "low_24h":{"usd":66000.5},
  "ath":{"usd":73738},
  "price_change_24h":-120.5,
  "price_change_percentage_24h":-0.17923,
  "circulating_supply":19687000,
  "max_supply":21000000
 }
}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewClient()
		cfg := client.Config()
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, "usd", cfg.Currency)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("options", func(t *testing.T) {
		client := NewClient(
			WithBaseURL("http://localhost:9000/api/"),
			WithAPIKey("secret"),
			WithCurrency("EUR"),
			WithTimeout(5*time.Second),
		)
		cfg := client.Config()
		assert.Equal(t, "http://localhost:9000/api", cfg.BaseURL)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, "eur", cfg.Currency)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestClient_FetchByIDs(t *testing.T) {
	t.Run("sends batched ids and decodes rows", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/coins/markets", r.URL.Path)
			assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(marketsBody))
		})

		client := NewClient(WithBaseURL(server.URL))
		assets, err := client.FetchByIDs(context.Background(), "bitcoin,ethereum")

		require.NoError(t, err)
		require.Len(t, assets, 2)
		assert.Equal(t, "bitcoin", assets[0].ID)
		assert.Equal(t, "btc", assets[0].Symbol)
		assert.True(t, decimal.RequireFromString("67187.12").Equal(assets[0].CurrentPrice))
		assert.Equal(t, 1, assets[0].MarketCapRank)
		assert.False(t, assets[0].Rising())
		assert.Equal(t, 2024, assets[0].LastUpdated.Year())

		assert.Equal(t, "ethereum", assets[1].ID)
		assert.True(t, assets[1].TotalVolume.IsZero(), "null decodes to zero")
		assert.True(t, assets[1].Rising())
	})

	t.Run("empty result", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})

		assets, err := NewClient(WithBaseURL(server.URL)).FetchByIDs(context.Background(), "nope")
		require.NoError(t, err)
		assert.Empty(t, assets)
	})

	t.Run("sends api key header", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
			w.Write([]byte(`[]`))
		})

		_, err := NewClient(WithBaseURL(server.URL), WithAPIKey("demo-key")).
			FetchByIDs(context.Background(), "bitcoin")
		require.NoError(t, err)
	})

	t.Run("decode failure", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"oops":`))
		})

		_, err := NewClient(WithBaseURL(server.URL)).FetchByIDs(context.Background(), "bitcoin")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestClient_FetchMarkets(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("per_page"))
		assert.Equal(t, "eur", q.Get("vs_currency"))
		assert.Empty(t, q.Get("ids"))
		w.Write([]byte(marketsBody))
	})

	client := NewClient(WithBaseURL(server.URL), WithCurrency("eur"))
	assets, err := client.FetchMarkets(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Len(t, assets, 2)

	t.Run("page below one is clamped", func(t *testing.T) {
		clamped := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			w.Write([]byte(`[]`))
		})
		_, err := NewClient(WithBaseURL(clamped.URL)).FetchMarkets(context.Background(), 0, 10)
		require.NoError(t, err)
	})
}

func TestClient_FetchDetail(t *testing.T) {
	t.Run("flattens detail for configured currency", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/bitcoin", r.URL.Path)
			assert.Equal(t, "false", r.URL.Query().Get("tickers"))
			assert.Equal(t, "false", r.URL.Query().Get("localization"))
			w.Write([]byte(coinBody))
		})

		detail, err := NewClient(WithBaseURL(server.URL)).FetchDetail(context.Background(), "bitcoin")
		require.NoError(t, err)

		assert.Equal(t, "bitcoin", detail.ID)
		assert.Equal(t, "Bitcoin", detail.Name)
		assert.Equal(t, "Bitcoin is the first decentralized cryptocurrency.", detail.Description)
		assert.Equal(t, "http://www.bitcoin.org", detail.Homepage)
		assert.Equal(t, "l.png", detail.Image)
		assert.Equal(t, []string{"Cryptocurrency", "Layer 1 (L1)"}, detail.Categories)
		assert.Equal(t, "2009-01-03", detail.GenesisDate)
		assert.Equal(t, "usd", detail.Currency)
		assert.True(t, decimal.RequireFromString("67187.12").Equal(detail.MarketData.CurrentPrice))
		assert.True(t, decimal.RequireFromString("73738").Equal(detail.MarketData.AllTimeHigh))
		assert.True(t, decimal.RequireFromString("21000000").Equal(detail.MarketData.MaxSupply))
	})

	t.Run("other currency", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(coinBody))
		})

		detail, err := NewClient(WithBaseURL(server.URL), WithCurrency("eur")).
			FetchDetail(context.Background(), "bitcoin")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(62000).Equal(detail.MarketData.CurrentPrice))
		assert.True(t, detail.MarketData.MarketCap.IsZero())
	})

	t.Run("not found carries api message", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"coin not found"}`))
		})

		_, err := NewClient(WithBaseURL(server.URL)).FetchDetail(context.Background(), "nope")
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "coin not found", apiErr.Message)
		assert.Contains(t, err.Error(), "coin not found")
	})

	t.Run("escapes id in path", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/a%2Fb", r.URL.EscapedPath())
			w.Write([]byte(coinBody))
		})

		_, err := NewClient(WithBaseURL(server.URL)).FetchDetail(context.Background(), "a/b")
		require.NoError(t, err)
	})
}

func TestClient_Retry(t *testing.T) {
	fastRetrier := func(n int) *retrier.Retrier {
		return retrier.New(
			retrier.WithMaxRetries(n),
			retrier.WithInitialInterval(time.Millisecond),
			retrier.WithJitter(0),
			retrier.WithRetryIf(Retryable),
		)
	}

	t.Run("retries rate limit then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"status":{"error_code":429,"error_message":"rate limited"}}`))
				return
			}
			w.Write([]byte(marketsBody))
		})

		client := NewClient(WithBaseURL(server.URL), WithRetrier(fastRetrier(3)))
		assets, err := client.FetchByIDs(context.Background(), "bitcoin,ethereum")
		require.NoError(t, err)
		assert.Len(t, assets, 2)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		})

		client := NewClient(WithBaseURL(server.URL), WithRetrier(fastRetrier(3)))
		_, err := client.FetchDetail(context.Background(), "nope")
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("without retrier fails fast", func(t *testing.T) {
		var calls atomic.Int32
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := NewClient(WithBaseURL(server.URL)).FetchByIDs(context.Background(), "bitcoin")
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, err.Error(), "503")
	})
}

func TestClient_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(WithBaseURL(server.URL)).FetchByIDs(ctx, "bitcoin")
	assert.ErrorIs(t, err, context.Canceled)
}
