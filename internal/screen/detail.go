package screen

import (
	"context"

	"github.com/artpar/coinfav/internal/favorites"
	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/observable"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DetailProjector drives the single-asset detail page and its favorite flag.
type DetailProjector struct {
	*projector
	favs     *favorites.Set
	fetcher  market.Fetcher
	favorite *observable.Value[bool]
}

// NewDetailProjector creates a projector in the Loading state.
func NewDetailProjector(favs *favorites.Set, fetcher market.Fetcher, opts ...Option) *DetailProjector {
	return &DetailProjector{
		projector: newProjector("detail", buildOptions(opts)),
		favs:      favs,
		fetcher:   fetcher,
		favorite:  observable.New(false),
	}
}

// Load sets the favorite flag for id, then moves to Loading and fetches the
// detail in the background. The flag is settled before Load returns,
// whatever the fetch does.
func (p *DetailProjector) Load(id string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.favorite.Set(p.favs.Contains(id))
	p.setStateLocked(Loading{})
	p.mu.Unlock()

	go p.fetch(id)
}

// ToggleFavorite flips id in the FavoriteSet and re-reads the flag. The
// screen state is left as it is.
func (p *DetailProjector) ToggleFavorite(ctx context.Context, id string) bool {
	p.favs.Toggle(ctx, id)
	favorite := p.favs.Contains(id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.favorite.Set(favorite)
	}
	return favorite
}

// IsFavorite returns the local favorite flag.
func (p *DetailProjector) IsFavorite() bool {
	return p.favorite.Get()
}

// SubscribeFavorite returns a subscription to the favorite flag.
func (p *DetailProjector) SubscribeFavorite() *observable.Subscription[bool] {
	return p.favorite.Subscribe()
}

// Close cancels an in-flight fetch and releases subscribers.
func (p *DetailProjector) Close() {
	p.shutdown(nil)
	p.favorite.Close()
}

func (p *DetailProjector) fetch(id string) {
	fetchID := uuid.NewString()
	p.logger.Debug("fetching detail",
		zap.String("fetch_id", fetchID),
		zap.String("id", id))

	detail, err := p.fetcher.FetchDetail(p.ctx, id)
	if err != nil {
		if p.ctx.Err() == nil {
			p.logger.Warn("failed to load detail",
				zap.String("fetch_id", fetchID),
				zap.String("id", id),
				zap.Error(err))
		}
		p.setState(Error{Message: errorMessage(err)})
		return
	}
	p.setState(Success[*market.AssetDetail]{Payload: detail})
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
