package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/artpar/coinfav/internal/tui"
)

// Row is one asset line with its favorite mark.
type Row struct {
	Asset    market.Asset
	Favorite bool
}

// RowsFromAssets marks every asset as a favorite.
func RowsFromAssets(assets []market.Asset) []Row {
	rows := make([]Row, len(assets))
	for i, a := range assets {
		rows[i] = Row{Asset: a, Favorite: true}
	}
	return rows
}

// RowsFromMarket converts market projector rows.
func RowsFromMarket(marketRows []screen.MarketRow) []Row {
	rows := make([]Row, len(marketRows))
	for i, r := range marketRows {
		rows[i] = Row{Asset: r.Asset, Favorite: r.Favorite}
	}
	return rows
}

// AssetList is a scrollable list of assets driven by a screen state.
type AssetList struct {
	tui.BaseComponent
	styles    tui.Styles
	emptyText string

	state  screen.State
	rows   []Row
	cursor int
	offset int
}

var _ tui.Component = (*AssetList)(nil)

// NewAssetList creates a list in the Loading state.
func NewAssetList(title, emptyText string) *AssetList {
	return &AssetList{
		BaseComponent: tui.NewBaseComponent(title),
		styles:        tui.DefaultStyles(),
		emptyText:     emptyText,
		state:         screen.Loading{},
	}
}

// Init initializes the list.
func (l *AssetList) Init() tea.Cmd {
	return nil
}

// SetState replaces the shown state. rows are the Success payload converted
// by the caller; they are ignored for other states. Loading keeps the rows
// so a refresh does not blank the list.
func (l *AssetList) SetState(s screen.State, rows []Row) {
	l.state = s
	switch s.(type) {
	case screen.Loading:
	case screen.Empty, screen.Error:
		l.rows = nil
	default:
		l.rows = rows
	}
	l.clampCursor()
}

// State returns the shown state.
func (l *AssetList) State() screen.State {
	return l.state
}

// Rows returns the current rows.
func (l *AssetList) Rows() []Row {
	return l.rows
}

// Selected returns the row under the cursor.
func (l *AssetList) Selected() (Row, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return Row{}, false
	}
	return l.rows[l.cursor], true
}

// Cursor returns the cursor index.
func (l *AssetList) Cursor() int {
	return l.cursor
}

// Update handles navigation keys.
func (l *AssetList) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	switch keyMsg.Type {
	case tea.KeyUp:
		l.move(-1)
	case tea.KeyDown:
		l.move(1)
	case tea.KeyPgUp:
		l.move(-l.visibleRows())
	case tea.KeyPgDown:
		l.move(l.visibleRows())
	case tea.KeyHome:
		l.cursor = 0
	case tea.KeyEnd:
		l.cursor = len(l.rows) - 1
	case tea.KeyRunes:
		switch string(keyMsg.Runes) {
		case "k":
			l.move(-1)
		case "j":
			l.move(1)
		case "g":
			l.cursor = 0
		case "G":
			l.cursor = len(l.rows) - 1
		}
	}
	l.clampCursor()
	return l, nil
}

func (l *AssetList) move(delta int) {
	l.cursor += delta
}

func (l *AssetList) clampCursor() {
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}

	visible := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// visibleRows is the height minus the title and header lines. An unsized
// list shows every row.
func (l *AssetList) visibleRows() int {
	if l.Height() <= 0 {
		return max(len(l.rows), 1)
	}
	n := l.Height() - 2
	if n < 1 {
		return 1
	}
	return n
}

// View renders the list.
func (l *AssetList) View() string {
	width := l.Width()
	if width <= 0 {
		width = 80
	}

	lines := []string{tui.RenderTitle(l.Title(), width, l.Focused())}

	switch s := l.state.(type) {
	case screen.Loading:
		if len(l.rows) == 0 {
			lines = append(lines, l.styles.Muted.Render("Loading..."))
			break
		}
		lines = append(lines, l.renderRows(width)...)
	case screen.Empty:
		lines = append(lines, l.styles.Muted.Render(l.emptyText))
	case screen.Error:
		lines = append(lines,
			l.styles.Error.Render(s.Message),
			l.styles.Muted.Render("Press r to retry"))
	default:
		lines = append(lines, l.renderRows(width)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Column widths.
const (
	colStar   = 2
	colRank   = 5
	colSymbol = 8
	colPrice  = 14
	colChange = 9
	colCap    = 10
)

func (l *AssetList) renderRows(width int) []string {
	nameWidth := width - colStar - colRank - colSymbol - colPrice - colChange - colCap - 6
	if nameWidth < 8 {
		nameWidth = 8
	}

	header := strings.Join([]string{
		tui.PadRight("", colStar),
		tui.PadLeft("#", colRank),
		tui.PadRight("SYMBOL", colSymbol),
		tui.PadRight("NAME", nameWidth),
		tui.PadLeft("PRICE", colPrice),
		tui.PadLeft("24H", colChange),
		tui.PadLeft("MCAP", colCap),
	}, " ")
	lines := []string{l.styles.Header.Render(header)}

	end := l.offset + l.visibleRows()
	if end > len(l.rows) {
		end = len(l.rows)
	}

	for i := l.offset; i < end; i++ {
		r := l.rows[i]
		a := r.Asset

		star := " "
		if r.Favorite {
			star = "★"
		}
		rank := "-"
		if a.MarketCapRank > 0 {
			rank = strconv.Itoa(a.MarketCapRank)
		}

		change := tui.PadLeft(market.FormatPercent(a.PriceChangePercentage24h), colChange)
		switch {
		case a.Rising():
			change = l.styles.Rising.Render(change)
		case a.PriceChangePercentage24h.IsNegative():
			change = l.styles.Falling.Render(change)
		}

		line := fmt.Sprintf("%s %s %s %s %s %s %s",
			l.styles.Star.Render(tui.PadRight(star, colStar)),
			tui.PadLeft(rank, colRank),
			tui.PadRight(tui.Truncate(a.Ticker(), colSymbol), colSymbol),
			tui.PadRight(tui.Truncate(a.Name, nameWidth), nameWidth),
			tui.PadLeft(market.FormatPrice(a.CurrentPrice), colPrice),
			change,
			tui.PadLeft(market.FormatCompact(a.MarketCap), colCap),
		)
		if i == l.cursor && l.Focused() {
			line = l.styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}
