package testserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
)

// Coin is one asset the fake API knows about.
type Coin struct {
	ID     string
	Symbol string
	Name   string
	Price  float64
	Cap    float64
	Change float64
}

// Coins is the fake API's market, ordered by market cap.
var Coins = []Coin{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Price: 65000.5, Cap: 1.28e12, Change: 1.5},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Price: 3050.2, Cap: 3.66e11, Change: -0.4},
	{ID: "solana", Symbol: "sol", Name: "Solana", Price: 145.75, Cap: 6.5e10, Change: 3.2},
}

func (c Coin) market(rank int) map[string]any {
	return map[string]any{
		"id":                          c.ID,
		"symbol":                      c.Symbol,
		"name":                        c.Name,
		"current_price":               c.Price,
		"market_cap":                  c.Cap,
		"market_cap_rank":             rank,
		"price_change_percentage_24h": c.Change,
	}
}

func (c Coin) detail(rank int) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"symbol":          c.Symbol,
		"name":            c.Name,
		"market_cap_rank": rank,
		"description":     map[string]string{"en": c.Name + " is a cryptocurrency."},
		"market_data": map[string]any{
			"current_price":               map[string]float64{"usd": c.Price},
			"market_cap":                  map[string]float64{"usd": c.Cap},
			"price_change_percentage_24h": c.Change,
		},
	}
}

// PriceAPI returns the routes of a fake CoinGecko API serving Coins.
func PriceAPI() map[string]http.HandlerFunc {
	h := Handlers{}
	return map[string]http.HandlerFunc{
		"/coins/markets": h.Markets(),
		"/coins/":        h.Coin(),
	}
}

// Handlers provides reusable response handlers.
type Handlers struct{}

// Markets serves /coins/markets: a filtered listing when ids is set,
// otherwise the requested page.
func (Handlers) Markets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]any, 0, len(Coins))
		query := r.URL.Query()

		if ids := query.Get("ids"); ids != "" {
			wanted := map[string]bool{}
			for _, id := range strings.Split(ids, ",") {
				wanted[id] = true
			}
			for i, c := range Coins {
				if wanted[c.ID] {
					rows = append(rows, c.market(i+1))
				}
			}
		} else if page := query.Get("page"); page == "" || page == "1" {
			for i, c := range Coins {
				rows = append(rows, c.market(i+1))
			}
		}

		writeJSON(w, http.StatusOK, rows)
	}
}

// Coin serves /coins/{id}.
func (Handlers) Coin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/coins/")
		for i, c := range Coins {
			if c.ID == id {
				writeJSON(w, http.StatusOK, c.detail(i+1))
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "coin not found"})
	}
}

// JSON returns a handler that responds with JSON.
func (Handlers) JSON(code int, data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, code, data)
	}
}

// Error returns a handler that responds with an error.
func (Handlers) Error(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, code, map[string]string{"error": message})
	}
}

// Flaky fails the first n requests with code and delegates afterwards.
func (h Handlers) Flaky(n int32, code int, next http.HandlerFunc) http.HandlerFunc {
	var calls atomic.Int32
	fail := h.Error(code, "try again later")
	return func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			fail(w, r)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}
