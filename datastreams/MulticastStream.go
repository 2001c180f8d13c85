package datastreams

import (
	"sync"

	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

// MulticastStream keeps one group of listeners per auction.
// Updates go to a single auction's group or to everyone.
type MulticastStream interface {
	AddListener(auctionId models.AuctionID, listenerId string, lis *listener)
	RemoveListener(auctionId models.AuctionID, listenerId string)
	BroadcastUpdateToGroup(auctionId models.AuctionID, update interface{})
	MakeGlobalBroadcast(update interface{})
	GetGroupsCount() int
}

// groupsMap combines a RWMutex with a map of BroadcastStreams
type groupsMap struct {
	sync.RWMutex
	m map[models.AuctionID]BroadcastStream
}

// multicastStream implements MulticastStream interface
type multicastStream struct {
	logger *logrus.Entry
	groups *groupsMap
}

// NewMulticastStream creates a MulticastStream
func NewMulticastStream() MulticastStream {
	return &multicastStream{
		logger: utils.Logger.WithFields(logrus.Fields{
			"module": "datastreams.MulticastStream",
		}),
		groups: &groupsMap{
			m: make(map[models.AuctionID]BroadcastStream),
		},
	}
}

// AddListener adds a listener to an auction's group, creating the group if needed
func (ms *multicastStream) AddListener(auctionId models.AuctionID, listenerId string, lis *listener) {
	l := ms.logger.WithFields(logrus.Fields{
		"method":           "AddListener",
		"param_auctionId":  auctionId,
		"param_listenerId": listenerId,
	})

	ms.groups.Lock()
	group, exists := ms.groups.m[auctionId]
	if !exists {
		l.Debugf("Creating group")
		group = NewLatestBroadcastStream()
		ms.groups.m[auctionId] = group
	}
	// added under the lock so an empty group can't be dropped in between
	group.AddListener(listenerId, lis)
	ms.groups.Unlock()

	l.Debugf("Added")
}

// RemoveListener removes a listener from an auction's group. Empty groups are dropped.
func (ms *multicastStream) RemoveListener(auctionId models.AuctionID, listenerId string) {
	l := ms.logger.WithFields(logrus.Fields{
		"method":           "RemoveListener",
		"param_auctionId":  auctionId,
		"param_listenerId": listenerId,
	})

	ms.groups.Lock()
	defer ms.groups.Unlock()

	group, exists := ms.groups.m[auctionId]
	if !exists {
		l.Warnf("Group not found")
		return
	}

	group.RemoveListener(listenerId)
	if group.GetListenersCount() == 0 {
		delete(ms.groups.m, auctionId)
		l.Debugf("Removed empty group")
	}
}

// BroadcastUpdateToGroup sends update to every listener of an auction
func (ms *multicastStream) BroadcastUpdateToGroup(auctionId models.AuctionID, update interface{}) {
	l := ms.logger.WithFields(logrus.Fields{
		"method":          "BroadcastUpdateToGroup",
		"param_auctionId": auctionId,
	})

	ms.groups.RLock()
	group, exists := ms.groups.m[auctionId]
	ms.groups.RUnlock()

	if !exists {
		l.Debugf("Nobody's listening")
		return
	}

	group.BroadcastUpdate(update)

	// BroadcastUpdate drops dead listeners, which may leave the group empty
	ms.groups.Lock()
	if group.GetListenersCount() == 0 && ms.groups.m[auctionId] == group {
		delete(ms.groups.m, auctionId)
		l.Debugf("Removed empty group")
	}
	ms.groups.Unlock()
}

// MakeGlobalBroadcast sends update to the listeners of every auction
func (ms *multicastStream) MakeGlobalBroadcast(update interface{}) {
	ms.groups.RLock()
	groups := make([]BroadcastStream, 0, len(ms.groups.m))
	for _, group := range ms.groups.m {
		groups = append(groups, group)
	}
	ms.groups.RUnlock()

	for _, group := range groups {
		group.BroadcastUpdate(update)
	}
}

// GetGroupsCount returns the number of auctions with listeners
func (ms *multicastStream) GetGroupsCount() int {
	ms.groups.RLock()
	defer ms.groups.RUnlock()
	return len(ms.groups.m)
}
