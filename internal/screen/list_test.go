package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/coinfav/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProjector_InitialState(t *testing.T) {
	p := NewListProjector(newFavorites(t), &fakeFetcher{})
	defer p.Close()
	assert.IsType(t, Loading{}, p.State())
}

func TestListProjector_EmptyFavorites(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewListProjector(newFavorites(t), fetcher)
	defer p.Close()

	p.Start()

	waitForState(t, p, isEmpty)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, fetcher.idsCalls(), "empty set must not hit the API")
}

func TestListProjector_Success(t *testing.T) {
	btc, eth := asset("bitcoin", "67000"), asset("ethereum", "3000")
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			return []market.Asset{btc, eth}, nil
		},
	}
	p := NewListProjector(newFavorites(t, "ethereum", "bitcoin"), fetcher)
	defer p.Close()

	p.Start()

	waitForState(t, p, isSuccess[[]market.Asset])
	rows, _ := PayloadOf[[]market.Asset](p.State())
	assert.Equal(t, []market.Asset{btc, eth}, rows)
	assert.Equal(t, []string{"bitcoin,ethereum"}, fetcher.idsCalls(), "one batched call")
}

func TestListProjector_ZeroRecordsIsEmpty(t *testing.T) {
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			return []market.Asset{}, nil
		},
	}
	p := NewListProjector(newFavorites(t, "bitcoin", "ethereum"), fetcher)
	defer p.Close()

	p.Start()

	waitForState(t, p, isEmpty)
	assert.Len(t, fetcher.idsCalls(), 1)
}

func TestListProjector_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	p := NewListProjector(newFavorites(t, "bitcoin"), fetcher)
	defer p.Close()

	p.Start()

	waitForState(t, p, isError)
	assert.Equal(t, Error{Message: FavoritesLoadErrorMessage}, p.State(),
		"underlying error must not reach the screen")
}

func TestListProjector_LoadingWhileFetching(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			<-release
			return []market.Asset{asset("bitcoin", "1")}, nil
		},
	}
	p := NewListProjector(newFavorites(t, "bitcoin"), fetcher)
	defer p.Close()

	p.Start()
	require.Eventually(t, func() bool { return len(fetcher.idsCalls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.IsType(t, Loading{}, p.State())

	close(release)
	waitForState(t, p, isSuccess[[]market.Asset])
}

func TestListProjector_FollowsFavoriteChanges(t *testing.T) {
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			var out []market.Asset
			for _, id := range market.SplitIDs(ids) {
				out = append(out, asset(id, "1"))
			}
			return out, nil
		},
	}
	favs := newFavorites(t)
	p := NewListProjector(favs, fetcher)
	defer p.Close()

	p.Start()
	waitForState(t, p, isEmpty)

	favs.Toggle(context.Background(), "bitcoin")
	waitForState(t, p, func(s State) bool {
		rows, ok := PayloadOf[[]market.Asset](s)
		return ok && len(rows) == 1 && rows[0].ID == "bitcoin"
	})

	favs.Toggle(context.Background(), "solana")
	waitForState(t, p, func(s State) bool {
		rows, ok := PayloadOf[[]market.Asset](s)
		return ok && len(rows) == 2
	})
	assert.Contains(t, fetcher.idsCalls(), "bitcoin,solana")

	favs.Toggle(context.Background(), "bitcoin")
	favs.Toggle(context.Background(), "solana")
	waitForState(t, p, isEmpty)
}

func TestListProjector_Refresh(t *testing.T) {
	t.Run("refetches current favorites", func(t *testing.T) {
		fetcher := &fakeFetcher{
			byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
				if call == 1 {
					return nil, errors.New("timeout")
				}
				return []market.Asset{asset("bitcoin", "1")}, nil
			},
		}
		p := NewListProjector(newFavorites(t, "bitcoin"), fetcher)
		defer p.Close()

		p.Start()
		waitForState(t, p, isError)

		p.Refresh()
		waitForState(t, p, isSuccess[[]market.Asset])
		assert.Len(t, fetcher.idsCalls(), 2)
	})

	t.Run("does not cancel in-flight fetch and last write wins", func(t *testing.T) {
		releaseFirst := make(chan struct{})
		stale, fresh := asset("bitcoin", "100"), asset("bitcoin", "200")
		fetcher := &fakeFetcher{
			byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
				if call == 1 {
					<-releaseFirst
					return []market.Asset{stale}, nil
				}
				return []market.Asset{fresh}, nil
			},
		}
		p := NewListProjector(newFavorites(t, "bitcoin"), fetcher)
		defer p.Close()

		p.Start()
		require.Eventually(t, func() bool { return len(fetcher.idsCalls()) == 1 }, time.Second, 5*time.Millisecond)

		p.Refresh()
		waitForState(t, p, func(s State) bool {
			rows, ok := PayloadOf[[]market.Asset](s)
			return ok && rows[0].CurrentPrice.Equal(fresh.CurrentPrice)
		})

		close(releaseFirst)
		waitForState(t, p, func(s State) bool {
			rows, ok := PayloadOf[[]market.Asset](s)
			return ok && rows[0].CurrentPrice.Equal(stale.CurrentPrice)
		}, "late result from the original fetch overwrites the slot")
	})

	t.Run("replaces the subscription", func(t *testing.T) {
		fetcher := &fakeFetcher{
			byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
				return []market.Asset{asset("bitcoin", "1")}, nil
			},
		}
		favs := newFavorites(t, "bitcoin")
		p := NewListProjector(favs, fetcher)
		defer p.Close()

		p.Start()
		waitForState(t, p, isSuccess[[]market.Asset])
		p.Refresh()
		require.Eventually(t, func() bool { return len(fetcher.idsCalls()) == 2 }, time.Second, 5*time.Millisecond)

		favs.Toggle(context.Background(), "ethereum")
		require.Eventually(t, func() bool { return len(fetcher.idsCalls()) == 3 }, time.Second, 5*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		assert.Len(t, fetcher.idsCalls(), 3, "one fetch per change, not one per refresh")
	})
}

func TestListProjector_Close(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	fetcher := &fakeFetcher{
		byIDs: func(ctx context.Context, call int, ids string) ([]market.Asset, error) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return []market.Asset{asset("bitcoin", "1")}, ctx.Err()
		},
	}
	favs := newFavorites(t, "bitcoin")
	p := NewListProjector(favs, fetcher)

	p.Start()
	<-started
	p.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}

	time.Sleep(20 * time.Millisecond)
	assert.IsType(t, Loading{}, p.State(), "no update after close")

	favs.Toggle(context.Background(), "ethereum")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, fetcher.idsCalls(), 1, "closed projector no longer follows favorites")

	assert.NotPanics(t, p.Close)
	assert.NotPanics(t, p.Refresh)
}

func TestListProjector_Subscribe(t *testing.T) {
	p := NewListProjector(newFavorites(t), &fakeFetcher{})
	sub := p.Subscribe()

	first := <-sub.C()
	assert.IsType(t, Loading{}, first)

	p.Start()
	select {
	case s := <-sub.C():
		assert.IsType(t, Empty{}, s)
	case <-time.After(time.Second):
		t.Fatal("no state published")
	}

	p.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
}
