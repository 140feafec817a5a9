package screen

import (
	"github.com/artpar/coinfav/internal/favorites"
	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/observable"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListProjector drives the favorites listing. Every FavoriteSet change
// triggers one batched fetch of the favorite rows.
type ListProjector struct {
	*projector
	favs    *favorites.Set
	fetcher market.Fetcher
	sub     *observable.Subscription[favorites.Snapshot] // guarded by mu
}

// NewListProjector creates a projector. Nothing happens until Start.
func NewListProjector(favs *favorites.Set, fetcher market.Fetcher, opts ...Option) *ListProjector {
	return &ListProjector{
		projector: newProjector("favorites", buildOptions(opts)),
		favs:      favs,
		fetcher:   fetcher,
	}
}

// Start subscribes to the FavoriteSet and projects its current snapshot and
// every later one.
func (p *ListProjector) Start() {
	p.resubscribe()
}

// Refresh reruns the subscribe-and-project procedure from scratch. Fetches
// already in flight are not cancelled; whichever result lands last wins.
func (p *ListProjector) Refresh() {
	p.resubscribe()
}

// Close releases the subscription and cancels in-flight fetches. The state
// does not change after Close returns.
func (p *ListProjector) Close() {
	p.shutdown(func() {
		if p.sub != nil {
			p.sub.Close()
			p.sub = nil
		}
	})
}

func (p *ListProjector) resubscribe() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.sub != nil {
		p.sub.Close()
	}
	p.sub = p.favs.Subscribe()
	go p.watch(p.sub)
}

func (p *ListProjector) watch(sub *observable.Subscription[favorites.Snapshot]) {
	for snap := range sub.C() {
		p.project(snap)
	}
}

func (p *ListProjector) project(snap favorites.Snapshot) {
	if snap.IsEmpty() {
		p.setState(Empty{})
		return
	}
	if !p.setState(Loading{}) {
		return
	}
	go p.fetch(snap.Join(market.IDSeparator), snap.Len())
}

func (p *ListProjector) fetch(ids string, count int) {
	fetchID := uuid.NewString()
	p.logger.Debug("fetching favorites",
		zap.String("fetch_id", fetchID),
		zap.Int("ids", count))

	assets, err := p.fetcher.FetchByIDs(p.ctx, ids)
	switch {
	case err != nil:
		if p.ctx.Err() == nil {
			p.logger.Warn("failed to load favorites",
				zap.String("fetch_id", fetchID),
				zap.Error(err))
		}
		p.setState(Error{Message: FavoritesLoadErrorMessage})
	case len(assets) == 0:
		p.setState(Empty{})
	default:
		p.setState(Success[[]market.Asset]{Payload: assets})
	}
}
