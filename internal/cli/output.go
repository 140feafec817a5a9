package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/observable"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	starOn  = "★"
	starOff = "☆"
)

var errScreenClosed = errors.New("screen closed before loading finished")

// awaitSettled returns the first state on sub that is not Loading.
func awaitSettled(ctx context.Context, sub *observable.Subscription[screen.State]) (screen.State, error) {
	defer sub.Close()
	for {
		select {
		case s, ok := <-sub.C():
			if !ok {
				return nil, errScreenClosed
			}
			if _, loading := s.(screen.Loading); !loading {
				return s, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func star(favorite bool) string {
	if favorite {
		return starOn
	}
	return starOff
}

// assetTable renders assets as a bordered table. marks, when not nil, adds a
// favorite column.
func assetTable(assets []market.Asset, marks []bool) string {
	headers := []string{"#", "ID", "SYMBOL", "NAME", "PRICE", "24H", "MARKET CAP"}
	if marks != nil {
		headers = append([]string{""}, headers...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)

	for i, a := range assets {
		rank := "-"
		if a.MarketCapRank > 0 {
			rank = strconv.Itoa(a.MarketCapRank)
		}
		row := []string{
			rank,
			a.ID,
			a.Ticker(),
			a.Name,
			market.FormatPrice(a.CurrentPrice),
			market.FormatPercent(a.PriceChangePercentage24h),
			market.FormatCompact(a.MarketCap),
		}
		if marks != nil {
			row = append([]string{star(marks[i])}, row...)
		}
		t.Row(row...)
	}
	return t.String()
}
