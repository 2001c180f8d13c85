package datastreams

import (
	"time"

	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

// AuctionUpdate is sent whenever a fresher snapshot of an auction is fetched
type AuctionUpdate struct {
	Auction   *models.Auction
	Status    models.Status
	FetchedAt time.Time
}

// AuctionUpdatesStream publishes refreshed auctions to the listeners of each auction
type AuctionUpdatesStream interface {
	SendAuctionUpdate(a *models.Auction, fetchedAt time.Time)
	AddListener(done <-chan struct{}, updates chan interface{}, auctionId models.AuctionID, listenerId string)
	RemoveListener(auctionId models.AuctionID, listenerId string)
}

// auctionUpdatesStream implements AuctionUpdatesStream
type auctionUpdatesStream struct {
	logger          *logrus.Entry
	multicastStream MulticastStream
}

func newAuctionUpdatesStream() AuctionUpdatesStream {
	return &auctionUpdatesStream{
		logger: utils.Logger.WithFields(logrus.Fields{
			"module": "datastreams.AuctionUpdatesStream",
		}),
		multicastStream: NewMulticastStream(),
	}
}

// SendAuctionUpdate sends the snapshot to the auction's listeners. The
// snapshot is shared between listeners and must not be modified.
func (aus *auctionUpdatesStream) SendAuctionUpdate(a *models.Auction, fetchedAt time.Time) {
	var l = aus.logger.WithFields(logrus.Fields{
		"method":          "SendAuctionUpdate",
		"param_auctionId": a.Id,
	})

	update := &AuctionUpdate{
		Auction:   a,
		Status:    models.DeriveStatus(a, fetchedAt),
		FetchedAt: fetchedAt,
	}
	aus.multicastStream.BroadcastUpdateToGroup(a.Id, update)

	l.Debugf("Sent %s", update.Status)
}

// AddListener adds a listener for one auction. A buffered updates channel
// that is full has its oldest queued update replaced; when one channel serves
// several auctions, the dropped snapshot may be another auction's and comes
// back with that auction's next refresh.
func (aus *auctionUpdatesStream) AddListener(done <-chan struct{}, updates chan interface{}, auctionId models.AuctionID, listenerId string) {
	var l = aus.logger.WithFields(logrus.Fields{
		"method":           "AddListener",
		"param_auctionId":  auctionId,
		"param_listenerId": listenerId,
	})

	aus.multicastStream.AddListener(auctionId, listenerId, &listener{
		update: updates,
		done:   done,
	})

	l.Infof("Added")
}

// RemoveListener removes a listener of one auction
func (aus *auctionUpdatesStream) RemoveListener(auctionId models.AuctionID, listenerId string) {
	var l = aus.logger.WithFields(logrus.Fields{
		"method":           "RemoveListener",
		"param_auctionId":  auctionId,
		"param_listenerId": listenerId,
	})

	aus.multicastStream.RemoveListener(auctionId, listenerId)

	l.Infof("Removed")
}
