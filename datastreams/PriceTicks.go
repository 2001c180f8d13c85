package datastreams

import (
	"context"
	"math/big"
	"runtime/debug"
	"sync"
	"time"

	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

// AuctionSource lists the auctions whose prices are ticked
type AuctionSource interface {
	Snapshots() []*models.Auction
}

// PriceTick is the live price and status of one auction.
// Price is nil before the auction starts.
type PriceTick struct {
	AuctionId models.AuctionID
	Price     *big.Int
	Status    models.Status
}

// PriceTicksUpdate carries the ticks that changed since the last update
type PriceTicksUpdate struct {
	At    time.Time
	Ticks []PriceTick
}

// PriceTicksStream recomputes live prices and statuses on an interval and
// broadcasts whatever changed
type PriceTicksStream interface {
	Run(ctx context.Context, source AuctionSource)
	Tick(source AuctionSource, now time.Time) *PriceTicksUpdate
	AddListener(done <-chan struct{}, updates chan interface{}, listenerId string)
	RemoveListener(listenerId string)
}

// priceTicksStream implements PriceTicksStream
type priceTicksStream struct {
	logger          *logrus.Entry
	broadcastStream BroadcastStream
	interval        time.Duration

	lastMutex sync.Mutex
	last      map[models.AuctionID]PriceTick // what listeners were last told
}

func newPriceTicksStream(interval time.Duration) PriceTicksStream {
	return &priceTicksStream{
		logger: utils.Logger.WithFields(logrus.Fields{
			"module": "datastreams.PriceTicksStream",
		}),
		broadcastStream: NewBroadcastStream(),
		interval:        interval,
		last:            make(map[models.AuctionID]PriceTick),
	}
}

// Run ticks until ctx is done. Call in a goroutine.
func (pts *priceTicksStream) Run(ctx context.Context, source AuctionSource) {
	var l = pts.logger.WithFields(logrus.Fields{
		"method": "Run",
	})

	defer func() {
		if r := recover(); r != nil {
			l.Errorf("Error! Stack trace: %s", string(debug.Stack()))
		}
	}()

	ticker := time.NewTicker(pts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Debugf("Stopped")
			return
		case now := <-ticker.C:
			pts.Tick(source, now)
		}
	}
}

// Tick recomputes every auction at now and broadcasts the changes, if any.
// It returns the broadcast update, or nil when nothing changed.
func (pts *priceTicksStream) Tick(source AuctionSource, now time.Time) *PriceTicksUpdate {
	var l = pts.logger.WithFields(logrus.Fields{
		"method": "Tick",
	})

	auctions := source.Snapshots()
	seen := make(map[models.AuctionID]bool, len(auctions))
	update := &PriceTicksUpdate{At: now}

	pts.lastMutex.Lock()
	for _, a := range auctions {
		seen[a.Id] = true

		tick := PriceTick{
			AuctionId: a.Id,
			Status:    models.DeriveStatus(a, now),
		}
		if price, err := models.ComputeCurrentPrice(a, now); err == nil {
			tick.Price = price
		}

		if prev, ok := pts.last[a.Id]; ok && sameTick(prev, tick) {
			continue
		}
		pts.last[a.Id] = tick
		update.Ticks = append(update.Ticks, tick)
	}
	for id := range pts.last {
		if !seen[id] {
			delete(pts.last, id)
		}
	}
	pts.lastMutex.Unlock()

	if len(update.Ticks) == 0 {
		return nil
	}

	pts.broadcastStream.BroadcastUpdate(update)
	l.Debugf("Sent %d ticks to %d listeners", len(update.Ticks), pts.broadcastStream.GetListenersCount())
	return update
}

func sameTick(a, b PriceTick) bool {
	if a.Status != b.Status {
		return false
	}
	if a.Price == nil || b.Price == nil {
		return a.Price == nil && b.Price == nil
	}
	return a.Price.Cmp(b.Price) == 0
}

// AddListener adds a listener to the PriceTicksStream
func (pts *priceTicksStream) AddListener(done <-chan struct{}, updates chan interface{}, listenerId string) {
	var l = pts.logger.WithFields(logrus.Fields{
		"method":           "AddListener",
		"param_listenerId": listenerId,
	})

	pts.broadcastStream.AddListener(listenerId, &listener{
		update: updates,
		done:   done,
	})

	l.Infof("Added")
}

// RemoveListener removes a listener from the PriceTicksStream
func (pts *priceTicksStream) RemoveListener(listenerId string) {
	var l = pts.logger.WithFields(logrus.Fields{
		"method":           "RemoveListener",
		"param_listenerId": listenerId,
	})

	pts.broadcastStream.RemoveListener(listenerId)

	l.Infof("Removed")
}
