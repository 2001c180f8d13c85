// Package datastreams fans auction updates out to subscribers. Updates are
// pushed to each listener's channel until its done channel closes.
package datastreams

import (
	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "datastreams",
})

// listener represents a single listener in the stream
type listener struct {
	update chan interface{}
	done   <-chan struct{}
}

// Init initalizes and configures the datastreams module
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "datastreams",
	})
}

// Manager manages access to all data streams
type Manager interface {
	GetAuctionUpdatesStream() AuctionUpdatesStream
	GetPriceTicksStream() PriceTicksStream
}

// dataStreamsManager implements the Manager interface
type dataStreamsManager struct {
	logger *logrus.Entry

	// auction updates stream
	auctionUpdatesStreamInstance AuctionUpdatesStream
	// price ticks stream
	priceTicksStreamInstance PriceTicksStream
}

// NewManager returns a Manager with fresh streams
func NewManager(config *utils.Config) Manager {
	return &dataStreamsManager{
		logger: utils.Logger.WithFields(logrus.Fields{
			"module": "datastreams.Manager",
		}),
		auctionUpdatesStreamInstance: newAuctionUpdatesStream(),
		priceTicksStreamInstance:     newPriceTicksStream(config.PriceTick()),
	}
}

// GetAuctionUpdatesStream returns the auction updates stream
func (dsm *dataStreamsManager) GetAuctionUpdatesStream() AuctionUpdatesStream {
	return dsm.auctionUpdatesStreamInstance
}

// GetPriceTicksStream returns the price ticks stream
func (dsm *dataStreamsManager) GetPriceTicksStream() PriceTicksStream {
	return dsm.priceTicksStreamInstance
}
