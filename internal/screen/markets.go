package screen

import (
	"context"

	"github.com/artpar/coinfav/internal/favorites"
	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/observable"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MarketRow is one market listing row with its favorite mark.
type MarketRow struct {
	Asset    market.Asset
	Favorite bool
}

// MarketProjector drives the market listing. Favorite changes re-mark the
// rows already fetched without another request.
type MarketProjector struct {
	*projector
	favs    *favorites.Set
	fetcher market.Fetcher

	// guarded by mu
	sub    *observable.Subscription[favorites.Snapshot]
	snap   favorites.Snapshot
	page   int
	assets []market.Asset
	loaded bool
}

// NewMarketProjector creates a projector in the Loading state.
func NewMarketProjector(favs *favorites.Set, fetcher market.Fetcher, opts ...Option) *MarketProjector {
	return &MarketProjector{
		projector: newProjector("markets", buildOptions(opts)),
		favs:      favs,
		fetcher:   fetcher,
	}
}

// Start subscribes to the FavoriteSet.
func (p *MarketProjector) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.sub != nil {
		return
	}
	p.snap = p.favs.Current()
	p.sub = p.favs.Subscribe()
	go p.watch(p.sub)
}

// Load fetches one page of the market listing. Only the page asked for last
// is shown; a result for any earlier page is dropped.
func (p *MarketProjector) Load(page, perPage int) {
	p.mu.Lock()
	if !p.setStateLocked(Loading{}) {
		p.mu.Unlock()
		return
	}
	p.page = page
	p.assets, p.loaded = nil, false
	p.mu.Unlock()

	go p.fetch(page, perPage)
}

// ToggleFavorite writes through the FavoriteSet; the rows are re-marked when
// the change arrives on the subscription.
func (p *MarketProjector) ToggleFavorite(ctx context.Context, id string) bool {
	return p.favs.Toggle(ctx, id).Contains(id)
}

// Close releases the subscription and cancels an in-flight fetch.
func (p *MarketProjector) Close() {
	p.shutdown(func() {
		if p.sub != nil {
			p.sub.Close()
			p.sub = nil
		}
	})
}

func (p *MarketProjector) watch(sub *observable.Subscription[favorites.Snapshot]) {
	for snap := range sub.C() {
		p.mu.Lock()
		p.snap = snap
		if p.loaded && len(p.assets) > 0 {
			p.setStateLocked(Success[[]MarketRow]{Payload: p.rowsLocked()})
		}
		p.mu.Unlock()
	}
}

func (p *MarketProjector) fetch(page, perPage int) {
	fetchID := uuid.NewString()
	p.logger.Debug("fetching markets",
		zap.String("fetch_id", fetchID),
		zap.Int("page", page),
		zap.Int("per_page", perPage))

	assets, err := p.fetcher.FetchMarkets(p.ctx, page, perPage)

	p.mu.Lock()
	defer p.mu.Unlock()

	if page != p.page {
		p.logger.Debug("dropping stale markets page",
			zap.String("fetch_id", fetchID),
			zap.Int("page", page),
			zap.Int("current_page", p.page))
		return
	}

	if err != nil {
		if p.ctx.Err() == nil {
			p.logger.Warn("failed to load markets",
				zap.String("fetch_id", fetchID),
				zap.Error(err))
		}
		p.assets, p.loaded = nil, false
		p.setStateLocked(Error{Message: MarketsLoadErrorMessage})
		return
	}

	p.assets, p.loaded = assets, true
	if len(assets) == 0 {
		p.setStateLocked(Empty{})
		return
	}
	p.setStateLocked(Success[[]MarketRow]{Payload: p.rowsLocked()})
}

func (p *MarketProjector) rowsLocked() []MarketRow {
	rows := make([]MarketRow, len(p.assets))
	for i, a := range p.assets {
		rows[i] = MarketRow{Asset: a, Favorite: p.snap.Contains(a.ID)}
	}
	return rows
}
