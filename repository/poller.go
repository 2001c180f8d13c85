package repository

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrPollerRunning is returned by Start on a running poller
var ErrPollerRunning = errors.New("poller already running")

// Poller refreshes every watched auction on an interval until stopped
type Poller struct {
	repo     *AuctionRepository
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller
func NewPoller(repo *AuctionRepository, interval time.Duration) *Poller {
	return &Poller{
		repo:     repo,
		interval: interval,
	}
}

// Start refreshes once right away, then on every interval, until ctx is
// done or Stop is called
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
	return nil
}

// Stop stops the poller and waits for an in-flight refresh to finish.
// Stopping a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	var l = logger.WithFields(logrus.Fields{
		"method": "Poller.run",
	})
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	l.Infof("Started. Polling every %s", p.interval)
	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			l.Infof("Stopped")
			return
		case <-ticker.C:
		}
	}
}

// poll refreshes each watched auction. Failures are logged and retried next round.
func (p *Poller) poll(ctx context.Context) {
	var l = logger.WithFields(logrus.Fields{
		"method": "Poller.poll",
	})

	for _, id := range p.repo.Watched() {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.repo.Refresh(ctx, id); err != nil {
			l.Warnf("Couldn't refresh auction %d: '%s'", id, err)
		}
	}
}
