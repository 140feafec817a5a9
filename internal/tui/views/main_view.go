package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/coinfav/internal/config"
	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/observable"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/artpar/coinfav/internal/tui"
	"github.com/artpar/coinfav/internal/tui/components"
)

// Pane represents which screen is shown.
type Pane int

const (
	PaneMarkets Pane = iota
	PaneFavorites
	PaneDetail
)

func (p Pane) String() string {
	switch p {
	case PaneMarkets:
		return "Markets"
	case PaneFavorites:
		return "Favorites"
	case PaneDetail:
		return "Detail"
	default:
		return "Unknown"
	}
}

// Backend supplies the projectors the view drives. *app.App satisfies it.
type Backend interface {
	Config() config.Config
	NewListProjector() *screen.ListProjector
	NewDetailProjector() *screen.DetailProjector
	NewMarketProjector() *screen.MarketProjector
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// stateMsg carries a projector state into the update loop. gen identifies
// the detail page a PaneDetail state belongs to.
type stateMsg struct {
	pane  Pane
	gen   int
	state screen.State
}

// favoriteMsg carries the detail projector's favorite flag.
type favoriteMsg struct {
	gen      int
	favorite bool
}

// toggledMsg reports a finished favorite toggle.
type toggledMsg struct {
	id       string
	favorite bool
}

// clearNotificationMsg is sent to clear the notification.
type clearNotificationMsg struct{}

var _ tui.Component = (*MainView)(nil)

// MainView is the top-level model: two tabbed lists and a detail page.
type MainView struct {
	width        int
	height       int
	pane         Pane
	returnPane   Pane
	showHelp     bool
	page         int
	perPage      int
	styles       tui.Styles
	notification string
	backend      Backend
	detailGen    int

	markets   *components.AssetList
	favorites *components.AssetList
	detail    *components.DetailPanel

	marketsP   *screen.MarketProjector
	favoritesP *screen.ListProjector
	detailP    *screen.DetailProjector

	marketsSub   *observable.Subscription[screen.State]
	favoritesSub *observable.Subscription[screen.State]
	detailSub    *observable.Subscription[screen.State]
	favoriteSub  *observable.Subscription[bool]
}

// NewMainView creates the view and its projectors. Projectors start in Init.
func NewMainView(b Backend) *MainView {
	perPage := b.Config().Markets.PerPage
	if perPage <= 0 {
		perPage = config.Default().Markets.PerPage
	}

	v := &MainView{
		pane:       PaneMarkets,
		returnPane: PaneMarkets,
		page:       1,
		perPage:    perPage,
		styles:     tui.DefaultStyles(),
		markets:    components.NewAssetList("Markets", "No assets on this page"),
		favorites:  components.NewAssetList("Favorites", "No favorites yet. Press f on an asset to add it."),
		detail:     components.NewDetailPanel(),
		backend:    b,
		marketsP:   b.NewMarketProjector(),
		favoritesP: b.NewListProjector(),
		detailP:    b.NewDetailProjector(),
	}

	v.marketsSub = v.marketsP.Subscribe()
	v.favoritesSub = v.favoritesP.Subscribe()
	v.subscribeDetail()

	v.markets.Focus()
	return v
}

// Init starts the projectors and the subscription loops.
func (v *MainView) Init() tea.Cmd {
	v.marketsP.Start()
	v.marketsP.Load(v.page, v.perPage)
	v.favoritesP.Start()

	return tea.Batch(
		v.waitFor(PaneMarkets),
		v.waitFor(PaneFavorites),
		v.waitFor(PaneDetail),
		v.waitForFavorite(),
	)
}

// Close stops every projector.
func (v *MainView) Close() {
	v.marketsP.Close()
	v.favoritesP.Close()
	v.detailP.Close()
}

// subscribeDetail attaches the view to the current detail projector.
func (v *MainView) subscribeDetail() {
	v.detailSub = v.detailP.Subscribe()
	v.favoriteSub = v.detailP.SubscribeFavorite()
}

// Title returns the program title.
func (v *MainView) Title() string {
	return "coinfav"
}

// Focused is always true for the top-level view.
func (v *MainView) Focused() bool {
	return true
}

// Focus is a no-op.
func (v *MainView) Focus() {}

// Blur is a no-op.
func (v *MainView) Blur() {}

// SetSize sets the view dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.updateSizes()
}

// Pane returns the shown pane.
func (v *MainView) Pane() Pane {
	return v.pane
}

// Notification returns the status bar notification.
func (v *MainView) Notification() string {
	return v.notification
}

func (v *MainView) waitFor(pane Pane) tea.Cmd {
	var sub *observable.Subscription[screen.State]
	switch pane {
	case PaneMarkets:
		sub = v.marketsSub
	case PaneFavorites:
		sub = v.favoritesSub
	default:
		sub = v.detailSub
	}
	gen := v.detailGen
	return tui.WaitFor(sub, func(s screen.State) tea.Msg {
		return stateMsg{pane: pane, gen: gen, state: s}
	})
}

func (v *MainView) waitForFavorite() tea.Cmd {
	gen := v.detailGen
	return tui.WaitFor(v.favoriteSub, func(f bool) tea.Msg {
		return favoriteMsg{gen: gen, favorite: f}
	})
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case stateMsg:
		if msg.pane == PaneDetail && msg.gen != v.detailGen {
			return v, nil
		}
		v.applyState(msg)
		return v, v.waitFor(msg.pane)

	case favoriteMsg:
		if msg.gen != v.detailGen {
			return v, nil
		}
		v.detail.SetFavorite(msg.favorite)
		return v, v.waitForFavorite()

	case toggledMsg:
		if msg.favorite {
			return v, v.notify("★ " + msg.id + " added to favorites")
		}
		return v, v.notify("☆ " + msg.id + " removed from favorites")

	case clearNotificationMsg:
		v.notification = ""
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *MainView) applyState(msg stateMsg) {
	switch msg.pane {
	case PaneMarkets:
		rows, _ := screen.PayloadOf[[]screen.MarketRow](msg.state)
		v.markets.SetState(msg.state, components.RowsFromMarket(rows))
	case PaneFavorites:
		assets, _ := screen.PayloadOf[[]market.Asset](msg.state)
		v.favorites.SetState(msg.state, components.RowsFromAssets(assets))
	case PaneDetail:
		v.detail.SetState(msg.state)
	}
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	if v.showHelp {
		if msg.Type == tea.KeyEsc || string(msg.Runes) == "?" {
			v.showHelp = false
		}
		return v, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		v.switchTab()
		return v, nil

	case tea.KeyEsc:
		if v.pane == PaneDetail {
			v.setPane(v.returnPane)
		}
		return v, nil

	case tea.KeyEnter:
		if row, ok := v.selected(); ok {
			return v, v.openDetail(row.Asset.ID)
		}
		return v, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return v, tea.Quit
		case "?":
			v.showHelp = true
			return v, nil
		case "f":
			return v, v.toggleFavorite()
		case "r":
			v.refresh()
			return v, nil
		case "y":
			return v, v.copySelection()
		case "]", "n":
			if v.pane == PaneMarkets {
				v.page++
				v.marketsP.Load(v.page, v.perPage)
			}
			return v, nil
		case "[", "p":
			if v.pane == PaneMarkets && v.page > 1 {
				v.page--
				v.marketsP.Load(v.page, v.perPage)
			}
			return v, nil
		}
	}

	if list := v.activeList(); list != nil {
		list.Update(msg)
	}
	return v, nil
}

func (v *MainView) switchTab() {
	switch v.pane {
	case PaneMarkets:
		v.setPane(PaneFavorites)
	case PaneFavorites:
		v.setPane(PaneMarkets)
	}
}

func (v *MainView) setPane(pane Pane) {
	v.markets.Blur()
	v.favorites.Blur()
	v.pane = pane
	switch pane {
	case PaneMarkets:
		v.markets.Focus()
	case PaneFavorites:
		v.favorites.Focus()
	}
}

func (v *MainView) activeList() *components.AssetList {
	switch v.pane {
	case PaneMarkets:
		return v.markets
	case PaneFavorites:
		return v.favorites
	default:
		return nil
	}
}

func (v *MainView) selected() (components.Row, bool) {
	list := v.activeList()
	if list == nil {
		return components.Row{}, false
	}
	return list.Selected()
}

// openDetail gives every detail page its own projector. Results still in
// flight for the previous page are dropped with it.
func (v *MainView) openDetail(id string) tea.Cmd {
	v.returnPane = v.pane
	v.detail.Open(id)
	v.setPane(PaneDetail)

	v.detailP.Close()
	v.detailP = v.backend.NewDetailProjector()
	v.detailGen++
	v.subscribeDetail()
	v.detailP.Load(id)

	return tea.Batch(v.waitFor(PaneDetail), v.waitForFavorite())
}

// toggleFavorite writes through the FavoriteSet off the update loop.
func (v *MainView) toggleFavorite() tea.Cmd {
	if v.pane == PaneDetail {
		id := v.detail.ID()
		if id == "" {
			return nil
		}
		projector := v.detailP
		return func() tea.Msg {
			return toggledMsg{id: id, favorite: projector.ToggleFavorite(context.Background(), id)}
		}
	}

	row, ok := v.selected()
	if !ok {
		return nil
	}
	id := row.Asset.ID
	return func() tea.Msg {
		return toggledMsg{id: id, favorite: v.marketsP.ToggleFavorite(context.Background(), id)}
	}
}

func (v *MainView) refresh() {
	switch v.pane {
	case PaneMarkets:
		v.marketsP.Load(v.page, v.perPage)
	case PaneFavorites:
		v.favoritesP.Refresh()
	case PaneDetail:
		if id := v.detail.ID(); id != "" {
			v.detail.Open(id)
			v.detailP.Load(id)
		}
	}
}

func (v *MainView) copySelection() tea.Cmd {
	var content string
	if v.pane == PaneDetail {
		content = v.detail.CopyText()
	} else if row, ok := v.selected(); ok {
		content = fmt.Sprintf("%s %s", row.Asset.ID, market.FormatPrice(row.Asset.CurrentPrice))
	}
	if content == "" {
		return nil
	}

	if err := writeClipboard(content); err != nil {
		return v.notify("✗ Copy failed")
	}
	return v.notify("✓ Copied " + content)
}

func (v *MainView) notify(text string) tea.Cmd {
	v.notification = text
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

func (v *MainView) updateSizes() {
	if v.width == 0 || v.height == 0 {
		return
	}
	// Reserve the tab bar, help bar and status bar.
	body := v.height - 3
	if body < 3 {
		body = 3
	}
	v.markets.SetSize(v.width, body)
	v.favorites.SetSize(v.width, body)
	v.detail.SetSize(v.width, body)
}

// View renders the view.
func (v *MainView) View() string {
	if v.showHelp {
		return v.renderHelp()
	}

	var body string
	switch v.pane {
	case PaneMarkets:
		body = v.markets.View()
	case PaneFavorites:
		body = v.favorites.View()
	case PaneDetail:
		body = v.detail.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderTabBar(),
		body,
		v.renderHelpBar(),
		v.renderStatusBar(),
	)
}

func (v *MainView) renderTabBar() string {
	active := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("229"))
	inactive := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("245"))

	tabs := make([]string, 0, 3)
	for _, p := range []Pane{PaneMarkets, PaneFavorites} {
		style := inactive
		if v.pane == p || (v.pane == PaneDetail && v.returnPane == p) {
			style = active
		}
		tabs = append(tabs, style.Render(p.String()))
	}
	if v.pane == PaneDetail {
		tabs = append(tabs, active.Render(PaneDetail.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderHelpBar renders context-sensitive keyboard shortcuts.
func (v *MainView) renderHelpBar() string {
	hint := func(key, desc string) string {
		return v.styles.Key.Render(key) + v.styles.KeyDesc.Render(" "+desc)
	}

	var hints []string
	switch v.pane {
	case PaneDetail:
		hints = []string{
			hint("Esc", "Back"),
			hint("f", "Favorite"),
			hint("r", "Reload"),
			hint("y", "Copy"),
		}
	case PaneMarkets:
		hints = []string{
			hint("j/k", "Navigate"),
			hint("Enter", "Detail"),
			hint("f", "Favorite"),
			hint("[/]", "Page"),
			hint("Tab", "Favorites"),
		}
	default:
		hints = []string{
			hint("j/k", "Navigate"),
			hint("Enter", "Detail"),
			hint("f", "Unfavorite"),
			hint("r", "Refresh"),
			hint("Tab", "Markets"),
		}
	}
	hints = append(hints, hint("?", "Help"), hint("q", "Quit"))

	return lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Render(strings.Join(hints, v.styles.Separator.Render(" │ ")))
}

// renderStatusBar shows the page and any notification.
func (v *MainView) renderStatusBar() string {
	items := []string{v.styles.Muted.Render(v.pane.String())}
	if v.pane == PaneMarkets {
		items = append(items, v.styles.Muted.Render(fmt.Sprintf("page %d", v.page)))
	}

	if v.notification != "" {
		style := v.styles.Rising.Bold(true)
		if strings.HasPrefix(v.notification, "✗") {
			style = v.styles.Error
		}
		items = append(items, style.Render(v.notification))
	}
	return strings.Join(items, "  ")
}

func (v *MainView) renderHelp() string {
	rows := [][2]string{
		{"Tab", "Switch between Markets and Favorites"},
		{"j / k, ↑ / ↓", "Move the cursor"},
		{"g / G", "First / last row"},
		{"Enter", "Open the detail page"},
		{"Esc", "Back from the detail page"},
		{"f", "Toggle favorite"},
		{"r", "Refresh the current screen"},
		{"y", "Copy id and price"},
		{"[ / ]", "Previous / next market page"},
		{"?", "Close this help"},
		{"q", "Quit"},
	}

	lines := []string{v.styles.Title.Render("coinfav keys"), ""}
	for _, r := range rows {
		lines = append(lines, v.styles.Key.Render(tui.PadRight(r[0], 16))+v.styles.KeyDesc.Render(r[1]))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}
