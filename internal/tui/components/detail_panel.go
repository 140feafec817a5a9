package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/artpar/coinfav/internal/tui"
)

// DetailPanel renders one asset's detail page.
type DetailPanel struct {
	tui.BaseComponent
	styles tui.Styles

	id       string
	state    screen.State
	favorite bool
}

var _ tui.Component = (*DetailPanel)(nil)

// NewDetailPanel creates an empty detail panel.
func NewDetailPanel() *DetailPanel {
	return &DetailPanel{
		BaseComponent: tui.NewBaseComponent("Detail"),
		styles:        tui.DefaultStyles(),
		state:         screen.Loading{},
	}
}

// Init initializes the panel.
func (p *DetailPanel) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the panel is driven by the main view.
func (p *DetailPanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	return p, nil
}

// Open points the panel at id and shows Loading.
func (p *DetailPanel) Open(id string) {
	p.id = id
	p.state = screen.Loading{}
}

// ID returns the asset being shown.
func (p *DetailPanel) ID() string {
	return p.id
}

// SetState replaces the shown state. A detail for another asset than the
// one opened is ignored.
func (p *DetailPanel) SetState(s screen.State) {
	if detail, ok := screen.PayloadOf[*market.AssetDetail](s); ok && detail != nil && detail.ID != p.id {
		return
	}
	p.state = s
}

// State returns the shown state.
func (p *DetailPanel) State() screen.State {
	return p.state
}

// SetFavorite sets the favorite mark.
func (p *DetailPanel) SetFavorite(favorite bool) {
	p.favorite = favorite
}

// Favorite returns the favorite mark.
func (p *DetailPanel) Favorite() bool {
	return p.favorite
}

// CopyText returns the id and, once loaded, the current price.
func (p *DetailPanel) CopyText() string {
	detail, ok := screen.PayloadOf[*market.AssetDetail](p.state)
	if !ok || detail == nil {
		return p.id
	}
	return fmt.Sprintf("%s %s %s", p.id,
		market.FormatPrice(detail.MarketData.CurrentPrice),
		strings.ToUpper(detail.Currency))
}

// View renders the panel.
func (p *DetailPanel) View() string {
	width := p.Width()
	if width <= 0 {
		width = 80
	}

	star := "☆"
	if p.favorite {
		star = "★"
	}
	title := fmt.Sprintf("%s %s", star, p.id)
	lines := []string{tui.RenderTitle(title, width, true)}

	switch s := p.state.(type) {
	case screen.Loading:
		lines = append(lines, p.styles.Muted.Render("Loading..."))
	case screen.Error:
		lines = append(lines,
			p.styles.Error.Render(s.Message),
			p.styles.Muted.Render("Press r to retry"))
	case screen.Success[*market.AssetDetail]:
		lines = append(lines, p.renderDetail(s.Payload, width)...)
	default:
		lines = append(lines, p.styles.Muted.Render("Nothing to show"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (p *DetailPanel) renderDetail(d *market.AssetDetail, width int) []string {
	md := d.MarketData
	currency := strings.ToUpper(d.Currency)

	change := market.FormatPercent(md.PriceChangePercentage24h)
	switch {
	case md.PriceChangePercentage24h.IsPositive():
		change = p.styles.Rising.Render(change)
	case md.PriceChangePercentage24h.IsNegative():
		change = p.styles.Falling.Render(change)
	}

	field := func(label, value string) string {
		return p.styles.Header.Render(tui.PadRight(label, 14)) + value
	}

	lines := []string{
		p.styles.Title.Render(fmt.Sprintf("%s (%s)", d.Name, strings.ToUpper(d.Symbol))),
		"",
	}
	if d.MarketCapRank > 0 {
		lines = append(lines, field("Rank", fmt.Sprintf("#%d", d.MarketCapRank)))
	}
	lines = append(lines,
		field("Price", market.FormatPrice(md.CurrentPrice)+" "+currency),
		field("24h change", change),
		field("24h range", market.FormatPrice(md.Low24h)+" - "+market.FormatPrice(md.High24h)),
		field("Market cap", market.FormatCompact(md.MarketCap)),
		field("Volume", market.FormatCompact(md.TotalVolume)),
		field("ATH", market.FormatPrice(md.AllTimeHigh)),
	)
	if !md.CirculatingSupply.IsZero() {
		lines = append(lines, field("Supply", market.FormatCompact(md.CirculatingSupply)))
	}
	if d.GenesisDate != "" {
		lines = append(lines, field("Genesis", d.GenesisDate))
	}
	if d.Homepage != "" {
		lines = append(lines, field("Homepage", d.Homepage))
	}
	if len(d.Categories) > 0 {
		lines = append(lines, field("Categories", tui.Truncate(strings.Join(d.Categories, ", "), width-14)))
	}

	if d.Description != "" {
		desc := lipgloss.NewStyle().Width(width).Render(d.Description)
		descLines := strings.Split(desc, "\n")
		room := p.Height() - len(lines) - 3
		if room > 0 && len(descLines) > room {
			descLines = append(descLines[:room-1], "...")
		}
		lines = append(lines, "")
		lines = append(lines, descLines...)
	}
	return lines
}
