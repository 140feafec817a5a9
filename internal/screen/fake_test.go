package screen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/artpar/coinfav/internal/favorites"
	"github.com/artpar/coinfav/internal/kv"
	"github.com/artpar/coinfav/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeFetcher records calls and answers through per-method hooks.
type fakeFetcher struct {
	mu          sync.Mutex
	byIDsCalls  []string
	detailCalls []string
	marketCalls int

	byIDs   func(ctx context.Context, call int, ids string) ([]market.Asset, error)
	detail  func(ctx context.Context, id string) (*market.AssetDetail, error)
	markets func(ctx context.Context, page, perPage int) ([]market.Asset, error)
}

func (f *fakeFetcher) FetchByIDs(ctx context.Context, ids string) ([]market.Asset, error) {
	f.mu.Lock()
	f.byIDsCalls = append(f.byIDsCalls, ids)
	call := len(f.byIDsCalls)
	f.mu.Unlock()
	if f.byIDs == nil {
		return nil, nil
	}
	return f.byIDs(ctx, call, ids)
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, id string) (*market.AssetDetail, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, id)
	f.mu.Unlock()
	if f.detail == nil {
		return &market.AssetDetail{ID: id}, nil
	}
	return f.detail(ctx, id)
}

func (f *fakeFetcher) FetchMarkets(ctx context.Context, page, perPage int) ([]market.Asset, error) {
	f.mu.Lock()
	f.marketCalls++
	f.mu.Unlock()
	if f.markets == nil {
		return nil, nil
	}
	return f.markets(ctx, page, perPage)
}

func (f *fakeFetcher) idsCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.byIDsCalls...)
}

func (f *fakeFetcher) marketCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marketCalls
}

func asset(id, price string) market.Asset {
	return market.Asset{
		ID:           id,
		Name:         id,
		CurrentPrice: decimal.RequireFromString(price),
	}
}

func newFavorites(t *testing.T, ids ...string) *favorites.Set {
	t.Helper()
	set := favorites.New(kv.NewMemory())
	for _, id := range ids {
		set.Toggle(context.Background(), id)
	}
	return set
}

type stateSource interface {
	State() State
}

func waitForState(t *testing.T, src stateSource, match func(State) bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, func() bool {
		return match(src.State())
	}, 2*time.Second, 5*time.Millisecond, msgAndArgs...)
}

func isLoading(s State) bool {
	_, ok := s.(Loading)
	return ok
}

func isEmpty(s State) bool {
	_, ok := s.(Empty)
	return ok
}

func isError(s State) bool {
	_, ok := s.(Error)
	return ok
}

func isSuccess[T any](s State) bool {
	_, ok := s.(Success[T])
	return ok
}
