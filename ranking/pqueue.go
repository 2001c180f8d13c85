package ranking

import (
	"sync"

	"github.com/delta/fhe-auction-client/models"
)

type bidItem struct {
	value *models.Bid
	seq   int // insertion order, the last tie breaker
}

// BidPQueue is a max heap of bids with a known amount. Higher amounts come
// first; equal amounts go to the earlier bid. It's safe for concurrent use.
type BidPQueue struct {
	sync.RWMutex
	items      []*bidItem
	elemsCount int
	pushed     int
}

// NewBidPQueue creates an empty queue
func NewBidPQueue() *BidPQueue {
	items := make([]*bidItem, 1)
	items[0] = nil // heap is 1-indexed

	return &BidPQueue{
		items: items,
	}
}

// Push adds a bid. Bids without an amount are ignored.
func (pq *BidPQueue) Push(b *models.Bid) {
	if b == nil || b.Amount == nil {
		return
	}

	pq.Lock()
	pq.items = append(pq.items, &bidItem{value: b, seq: pq.pushed})
	pq.pushed++
	pq.elemsCount++
	pq.swim(pq.size())
	pq.Unlock()
}

// Pop removes and returns the best bid, or nil if empty
func (pq *BidPQueue) Pop() *models.Bid {
	pq.Lock()
	defer pq.Unlock()

	if pq.size() < 1 {
		return nil
	}

	top := pq.items[1]

	pq.exch(1, pq.size())
	pq.items = pq.items[0:pq.size()]
	pq.elemsCount--
	pq.sink(1)

	return top.value
}

// Head returns the best bid without removing it
func (pq *BidPQueue) Head() *models.Bid {
	pq.RLock()
	defer pq.RUnlock()

	if pq.size() < 1 {
		return nil
	}
	return pq.items[1].value
}

// Size returns the number of queued bids
func (pq *BidPQueue) Size() int {
	pq.RLock()
	defer pq.RUnlock()
	return pq.size()
}

// Empty reports whether the queue has no bids
func (pq *BidPQueue) Empty() bool {
	return pq.Size() == 0
}

func (pq *BidPQueue) size() int {
	return pq.elemsCount
}

// outranks reports whether a should be ranked above b
func outranks(a, b *bidItem) bool {
	if c := a.value.Amount.Cmp(b.value.Amount); c != 0 {
		return c > 0
	}
	if a.value.SubmittedAt != b.value.SubmittedAt {
		return a.value.SubmittedAt < b.value.SubmittedAt
	}
	return a.seq < b.seq
}

// less is the heap order: i sits below j
func (pq *BidPQueue) less(i, j int) bool {
	return outranks(pq.items[j], pq.items[i])
}

func (pq *BidPQueue) exch(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *BidPQueue) swim(k int) {
	for k > 1 && pq.less(k/2, k) {
		pq.exch(k/2, k)
		k = k / 2
	}
}

func (pq *BidPQueue) sink(k int) {
	for 2*k <= pq.size() {
		j := 2 * k

		if j < pq.size() && pq.less(j, j+1) {
			j++
		}
		if !pq.less(k, j) {
			break
		}

		pq.exch(k, j)
		k = j
	}
}
