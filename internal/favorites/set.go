// Package favorites keeps the durable, observable set of favorited asset
// identifiers shared by every screen.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/artpar/coinfav/internal/kv"
	"github.com/artpar/coinfav/internal/observable"
	"go.uber.org/zap"
)

// StorageKey is the kv key the set is persisted under.
const StorageKey = "favorites"

const loadTimeout = 5 * time.Second

// Set is the single source of truth for "is this asset a favorite".
//
// The durable copy and the in-memory snapshot are equal whenever Toggle
// returns. Observers are notified after the write, so every snapshot they
// receive is already durable.
type Set struct {
	store  kv.Store
	logger *zap.Logger

	loadOnce sync.Once
	value    *observable.Value[Snapshot]
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Set) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Set backed by store. Nothing is read until first use.
func New(store kv.Store, opts ...Option) *Set {
	s := &Set{
		store:  store,
		logger: zap.NewNop(),
		value:  observable.New(Snapshot{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the durable store. A missing key, an unreadable store or a
// corrupt value all yield an empty snapshot.
func (s *Set) Load(ctx context.Context) Snapshot {
	raw, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return Snapshot{}
	}
	if err != nil {
		s.logger.Warn("failed to read favorites, starting empty", zap.Error(err))
		return Snapshot{}
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.logger.Warn("corrupt favorites value, starting empty",
			zap.Error(err),
			zap.Int("bytes", len(raw)))
		return Snapshot{}
	}
	return NewSnapshot(ids...)
}

// Current returns the latest in-memory snapshot.
func (s *Set) Current() Snapshot {
	s.ensureLoaded()
	return s.value.Get()
}

// Contains reports whether id is currently a favorite.
func (s *Set) Contains(id string) bool {
	return s.Current().Contains(id)
}

// Toggle removes id if it is a favorite and adds it otherwise. The new set is
// persisted before it is published to observers and returned.
//
// A failed write is logged and not reported; memory and observers still move
// to the new snapshot.
func (s *Set) Toggle(ctx context.Context, id string) Snapshot {
	s.ensureLoaded()

	next := s.value.Update(func(current Snapshot) Snapshot {
		next := current.toggled(id)
		s.persist(ctx, next)
		return next
	})

	s.logger.Debug("favorite toggled",
		zap.String("id", id),
		zap.Bool("favorite", next.Contains(id)),
		zap.Int("count", next.Len()))
	return next
}

// Subscribe returns a subscription that immediately holds the current
// snapshot and then receives every later one.
func (s *Set) Subscribe() *observable.Subscription[Snapshot] {
	s.ensureLoaded()
	return s.value.Subscribe()
}

// Close releases every subscription. The store is owned by the caller and is
// left open.
func (s *Set) Close() {
	s.logger.Debug("closing favorites", zap.Int("subscribers", s.value.Subscribers()))
	s.value.Close()
}

func (s *Set) ensureLoaded() {
	s.loadOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		s.value.Set(s.Load(ctx))
	})
}

func (s *Set) persist(ctx context.Context, snap Snapshot) {
	data, err := json.Marshal(snap.IDs())
	if err != nil {
		s.logger.Error("failed to encode favorites", zap.Error(err))
		return
	}
	if err := s.store.Put(ctx, StorageKey, data); err != nil {
		s.logger.Error("failed to persist favorites", zap.Error(err))
	}
}
