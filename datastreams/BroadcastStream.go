package datastreams

import (
	"sync"

	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

// BroadcastStream sends every update to all of its listeners
type BroadcastStream interface {
	AddListener(listenerId string, lis *listener)
	RemoveListener(listenerId string)
	BroadcastUpdate(update interface{})
	GetListenersCount() int
}

// listenersMap combines a RWMutex with a map of listeners
type listenersMap struct {
	sync.RWMutex
	m map[string]*listener
}

// broadcastStream implements BroadcastStream interface
type broadcastStream struct {
	logger    *logrus.Entry
	listeners *listenersMap

	// latestOnly replaces an undelivered update instead of waiting for the listener
	latestOnly bool
}

// NewBroadcastStream creates a BroadcastStream that delivers every update.
// A slow listener holds up the broadcast until it reads or goes away.
func NewBroadcastStream() BroadcastStream {
	return newBroadcastStream("datastreams.BroadcastStream", false)
}

// NewLatestBroadcastStream creates a BroadcastStream for updates that
// supersede each other, like auction snapshots. A listener whose buffer is
// full has its queued update replaced by the new one. Listeners with an
// unbuffered channel are waited for as usual.
func NewLatestBroadcastStream() BroadcastStream {
	return newBroadcastStream("datastreams.LatestBroadcastStream", true)
}

func newBroadcastStream(module string, latestOnly bool) *broadcastStream {
	return &broadcastStream{
		logger: utils.Logger.WithFields(logrus.Fields{
			"module": module,
		}),
		listeners: &listenersMap{
			m: make(map[string]*listener),
		},
		latestOnly: latestOnly,
	}
}

// AddListener adds a listener to the stream. An existing listener with the same id is replaced.
func (bs *broadcastStream) AddListener(listenerId string, lis *listener) {
	l := bs.logger.WithFields(logrus.Fields{
		"method":           "AddListener",
		"param_listenerId": listenerId,
	})

	bs.listeners.Lock()
	bs.listeners.m[listenerId] = lis
	bs.listeners.Unlock()

	l.Debugf("Added")
}

// RemoveListener removes a listener from the stream
func (bs *broadcastStream) RemoveListener(listenerId string) {
	l := bs.logger.WithFields(logrus.Fields{
		"method":           "RemoveListener",
		"param_listenerId": listenerId,
	})

	bs.listeners.Lock()
	delete(bs.listeners.m, listenerId)
	bs.listeners.Unlock()

	l.Debugf("Removed")
}

// BroadcastUpdate sends update to every listener. Listeners found closed are dropped.
func (bs *broadcastStream) BroadcastUpdate(update interface{}) {
	l := bs.logger.WithFields(logrus.Fields{
		"method": "BroadcastUpdate",
	})

	var (
		dead     []string
		replaced int
	)

	bs.listeners.RLock()
	l.Debugf("Broadcasting to %d listeners", len(bs.listeners.m))
	for id, lis := range bs.listeners.m {
		var ok bool
		if bs.latestOnly && cap(lis.update) > 0 {
			var stale bool
			ok, stale = lis.replace(update)
			if stale {
				replaced++
			}
		} else {
			ok = lis.send(update)
		}
		if !ok {
			dead = append(dead, id)
		}
	}
	bs.listeners.RUnlock()

	if replaced > 0 {
		l.Debugf("Replaced %d undelivered updates", replaced)
	}
	if len(dead) == 0 {
		return
	}

	bs.listeners.Lock()
	for _, id := range dead {
		delete(bs.listeners.m, id)
	}
	bs.listeners.Unlock()

	l.Debugf("Dropped %d dead listeners", len(dead))
}

// GetListenersCount returns the number of listeners
func (bs *broadcastStream) GetListenersCount() int {
	bs.listeners.RLock()
	defer bs.listeners.RUnlock()
	return len(bs.listeners.m)
}

// send waits until the listener takes update. It returns false if the listener is gone.
func (lis *listener) send(update interface{}) bool {
	select {
	case <-lis.done:
		return false
	default:
	}

	select {
	case <-lis.done:
		return false
	case lis.update <- update:
		return true
	}
}

// replace queues update without waiting, discarding queued updates while the
// buffer is full. It reports whether the listener is alive and whether
// anything was discarded.
func (lis *listener) replace(update interface{}) (alive bool, discarded bool) {
	for {
		select {
		case <-lis.done:
			return false, discarded
		default:
		}

		select {
		case lis.update <- update:
			return true, discarded
		default:
		}

		select {
		case <-lis.update:
			discarded = true
		default:
			// the listener drained it between the two attempts
		}
	}
}
