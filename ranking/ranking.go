// Package ranking orders the bids of an auction for display once their
// amounts are known.
package ranking

import (
	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/common"
)

// RankedBid is a bid with its place in the auction
type RankedBid struct {
	Bid *models.Bid
	// Rank starts at 1. Zero means the amount is still sealed.
	Rank      int
	IsWinning bool
	// Allocated is the number of batch units the bid wins
	Allocated uint32
	// Refundable is set once the auction is over for bids that didn't win
	Refundable bool
}

// RankBids ranks the bids of a:
//   - highest amount first, earlier bids first on equal amounts
//   - sealed bids go last, unranked
//   - batch auctions fill Supply in rank order, the last winner may get fewer units than asked
//   - settled auctions take the winner from the ledger, cancelled ones have none
//   - open auctions mark the leader as winning if it meets the reserve
func RankBids(a *models.Auction, bids []*models.Bid) []RankedBid {
	pq := NewBidPQueue()
	var sealed []*models.Bid
	for _, b := range bids {
		if b.Amount == nil {
			sealed = append(sealed, b)
			continue
		}
		pq.Push(b)
	}

	ranked := make([]RankedBid, 0, len(bids))
	for rank := 1; !pq.Empty(); rank++ {
		ranked = append(ranked, RankedBid{Bid: pq.Pop(), Rank: rank})
	}

	switch {
	case a.Cancelled:
	case a.Mechanism == models.Batch:
		allocate(a, ranked)
	case a.Settled:
		markLedgerWinner(a, ranked)
	case len(ranked) > 0 && a.MeetsReserve(ranked[0].Bid.Amount):
		ranked[0].IsWinning = true
	}

	over := a.Settled || a.Cancelled
	for i := range ranked {
		ranked[i].Refundable = over && !ranked[i].IsWinning
	}
	for _, b := range sealed {
		ranked = append(ranked, RankedBid{Bid: b, Refundable: over})
	}
	return ranked
}

func allocate(a *models.Auction, ranked []RankedBid) {
	remaining := a.Supply
	for i := range ranked {
		if remaining == 0 || !a.MeetsReserve(ranked[i].Bid.Amount) {
			return
		}
		want := ranked[i].Bid.Quantity
		if want == 0 {
			want = 1
		}
		if want > remaining {
			want = remaining
		}
		ranked[i].Allocated = want
		ranked[i].IsWinning = true
		remaining -= want
	}
}

func markLedgerWinner(a *models.Auction, ranked []RankedBid) {
	if a.HighestBidder == (common.Address{}) {
		return
	}
	for i := range ranked {
		if ranked[i].Bid.Bidder == a.HighestBidder {
			ranked[i].IsWinning = true
			return
		}
	}
}

// ForBidder returns the ranked bids placed by bidder
func ForBidder(ranked []RankedBid, bidder common.Address) []RankedBid {
	var mine []RankedBid
	for _, r := range ranked {
		if r.Bid.Bidder == bidder {
			mine = append(mine, r)
		}
	}
	return mine
}
