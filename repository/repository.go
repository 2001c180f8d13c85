// Package repository keeps the last known snapshot of each auction the client
// looks at. Snapshots are fetched from the ledger, replaced wholesale and
// never modified once published.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/datastreams"
	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "repository",
})

// Init configures the repository package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "repository",
	})
}

// Snapshot is an auction and its bids as read from the ledger at FetchedAt
type Snapshot struct {
	Auction   *models.Auction
	Bids      []*models.Bid
	FetchedAt time.Time
}

// FetchError is returned when the ledger couldn't be read.
// Nothing is made up in its place; the last good snapshot, if any, stays cached.
type FetchError struct {
	AuctionId models.AuctionID
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching auction %d: %s", e.AuctionId, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause see through a FetchError
func (e *FetchError) Cause() error {
	return e.Err
}

// AuctionRepository is a read-through cache of auction snapshots
type AuctionRepository struct {
	reader       chain.AuctionReader
	updates      datastreams.AuctionUpdatesStream
	cache        *lru.Cache
	maxStaleness time.Duration
	now          func() time.Time

	mu          sync.Mutex
	generations map[models.AuctionID]uint64 // bumped by Invalidate
	watched     map[models.AuctionID]int
}

// New creates a repository reading from reader. updates may be nil.
func New(reader chain.AuctionReader, config *utils.Config, updates datastreams.AuctionUpdatesStream) (*AuctionRepository, error) {
	size := config.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "creating snapshot cache")
	}

	return &AuctionRepository{
		reader:       reader,
		updates:      updates,
		cache:        cache,
		maxStaleness: config.MaxStaleness(),
		now:          time.Now,
		generations:  make(map[models.AuctionID]uint64),
		watched:      make(map[models.AuctionID]int),
	}, nil
}

// Get returns the cached snapshot, refetching it if it's missing or older
// than the configured staleness
func (r *AuctionRepository) Get(ctx context.Context, id models.AuctionID) (*Snapshot, error) {
	if s, ok := r.Peek(id); ok && r.now().Sub(s.FetchedAt) < r.maxStaleness {
		return s, nil
	}
	return r.Refresh(ctx, id)
}

// Peek returns the cached snapshot without fetching
func (r *AuctionRepository) Peek(id models.AuctionID) (*Snapshot, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Snapshot), true
}

// Refresh fetches the auction and its bids and replaces the cached snapshot.
// A fetch that started before the latest Invalidate is returned but not cached,
// and an older snapshot never replaces a newer one.
func (r *AuctionRepository) Refresh(ctx context.Context, id models.AuctionID) (*Snapshot, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":   "Refresh",
		"param_id": id,
	})

	r.mu.Lock()
	gen := r.generations[id]
	r.mu.Unlock()
	startedAt := r.now()

	a, err := r.reader.GetAuction(ctx, id)
	if err != nil {
		l.Errorf("Failed to fetch auction: '%s'", err)
		fetchCounter.WithLabelValues("error").Inc()
		return nil, &FetchError{AuctionId: id, Err: err}
	}
	bids, err := r.reader.GetBids(ctx, id)
	if err != nil {
		l.Errorf("Failed to fetch bids: '%s'", err)
		fetchCounter.WithLabelValues("error").Inc()
		return nil, &FetchError{AuctionId: id, Err: err}
	}

	// the ledger doesn't store allocations, an indexer may
	if a.Mechanism == models.Batch && a.Allocations == nil {
		a.Allocations = models.AllocationsFromBids(bids)
	}

	s := &Snapshot{Auction: a, Bids: bids, FetchedAt: startedAt}

	r.mu.Lock()
	stored := false
	if r.generations[id] == gen {
		if prev, ok := r.Peek(id); !ok || !prev.FetchedAt.After(startedAt) {
			r.cache.Add(id, s)
			stored = true
		}
	}
	r.mu.Unlock()

	if !stored {
		l.Debugf("Superseded while fetching, not cached")
		fetchCounter.WithLabelValues("superseded").Inc()
		return s, nil
	}

	l.Debugf("Refreshed %s", a)
	fetchCounter.WithLabelValues("ok").Inc()
	if r.updates != nil {
		r.updates.SendAuctionUpdate(a, startedAt)
	}
	return s, nil
}

// Invalidate drops the cached snapshot so the next Get refetches it
func (r *AuctionRepository) Invalidate(id models.AuctionID) {
	r.mu.Lock()
	r.generations[id]++
	r.cache.Remove(id)
	r.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"method":   "Invalidate",
		"param_id": id,
	}).Debugf("Invalidated")
}

// Watch marks an auction for periodic refresh by the Poller. Calls nest.
func (r *AuctionRepository) Watch(id models.AuctionID) {
	r.mu.Lock()
	r.watched[id]++
	watchedGauge.Set(float64(len(r.watched)))
	r.mu.Unlock()
}

// Unwatch undoes one Watch
func (r *AuctionRepository) Unwatch(id models.AuctionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watched[id] <= 1 {
		delete(r.watched, id)
		watchedGauge.Set(float64(len(r.watched)))
		return
	}
	r.watched[id]--
}

// Watched returns the watched auction ids in ascending order
func (r *AuctionRepository) Watched() []models.AuctionID {
	r.mu.Lock()
	ids := make([]models.AuctionID, 0, len(r.watched))
	for id := range r.watched {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshots returns the cached auctions of all watched ids
func (r *AuctionRepository) Snapshots() []*models.Auction {
	var auctions []*models.Auction
	for _, id := range r.Watched() {
		if s, ok := r.Peek(id); ok {
			auctions = append(auctions, s.Auction)
		}
	}
	return auctions
}
