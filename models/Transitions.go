package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Event is an external, ledger-confirmed occurrence affecting an auction
type Event struct {
	Kind EventKind

	// BidConfirmed, BidRevealed
	Bid *Bid
	// NewBidder is set when the confirmed bid is the bidder's first on this auction
	NewBidder bool

	// WinnerRevealed
	Winner        common.Address
	WinningAmount *big.Int

	// ItemClaimed, RefundClaimed, BidRevealed
	Claimant common.Address
}

// ApplyEvent applies an event to a copy of the auction and returns the copy.
// a itself is never modified.
func ApplyEvent(a *Auction, ev Event, now time.Time) (*Auction, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":          "ApplyEvent",
		"param_auctionId": a.Id,
		"param_event":     ev.Kind,
	})

	status := DeriveStatus(a, now)
	next := a.Copy()

	switch ev.Kind {
	case BidConfirmed:
		if err := applyBid(next, ev); err != nil {
			return nil, err
		}

	case WinnerRevealed:
		if err := CanSettle(a, now); err != nil {
			return nil, err
		}
		if ev.Winner != (common.Address{}) && !a.MeetsReserve(ev.WinningAmount) {
			return nil, ValidationError{"winningAmount", "below reserve price"}
		}
		next.Settled = true
		next.HighestBidder = ev.Winner
		next.WinningAmount = copyInt(ev.WinningAmount)

	case AuctionCancelled:
		if err := CanCancel(a, now); err != nil {
			return nil, err
		}
		next.Cancelled = true

	case ItemClaimed:
		if status != Settled || a.ItemClaimed {
			return nil, TransitionError{a.Id, status, ev.Kind}
		}
		if !a.HasWinner() || ev.Claimant != a.HighestBidder {
			return nil, ValidationError{"claimant", "only the winner can claim the item"}
		}
		next.ItemClaimed = true

	case RefundClaimed:
		if status != Settled && status != Cancelled {
			return nil, TransitionError{a.Id, status, ev.Kind}
		}
		if status == Settled && a.HasWinner() && ev.Claimant == a.HighestBidder {
			return nil, ValidationError{"claimant", "the winner has nothing to refund"}
		}
		// refunds move funds only, the auction itself doesn't change

	case BidRevealed:
		if status != RevealPhase {
			return nil, TransitionError{a.Id, status, ev.Kind}
		}
		if ev.Bid == nil {
			return nil, ValidationError{"bid", "missing"}
		}
		if ev.Bid.AuctionId != a.Id || !ev.Bid.IsSealed() {
			return nil, ValidationError{"bid", "not a sealed bid on this auction"}
		}
		if ev.Bid.Bidder != ev.Claimant {
			return nil, ValidationError{"claimant", "only the bidder can reveal a bid"}
		}
		// the amount is only opened on the ledger, counters don't move

	default:
		return nil, TransitionError{a.Id, status, ev.Kind}
	}

	l.Debugf("Applied. %s -> %s", status, DeriveStatus(next, now))
	return next, nil
}

// applyBid bumps the counters and the price cache for a confirmed bid.
// The bid must have been submitted inside the bidding window.
func applyBid(next *Auction, ev Event) error {
	b := ev.Bid
	if b == nil {
		return ValidationError{"bid", "missing"}
	}
	if b.SubmittedAt < next.StartTime || b.SubmittedAt >= next.EndTime {
		return TransitionError{next.Id, DeriveStatus(next, time.Unix(b.SubmittedAt, 0)), BidConfirmed}
	}
	if next.Cancelled || next.Settled {
		return TransitionError{next.Id, DeriveStatus(next, time.Unix(b.SubmittedAt, 0)), BidConfirmed}
	}

	next.TotalBids++
	if ev.NewBidder {
		next.UniqueBidders++
	}

	switch next.Mechanism {
	case English:
		if b.Amount != nil && (next.CurrentPrice == nil || b.Amount.Cmp(next.CurrentPrice) > 0) {
			next.CurrentPrice = new(big.Int).Set(b.Amount)
		}
	case Dutch:
		next.CurrentPrice = copyInt(b.Amount)
	case Batch:
		if b.Quantity > next.RemainingSupply() {
			return ValidationError{"quantity", "exceeds remaining supply"}
		}
		next.Allocations = append(next.Allocations, Allocation{
			Bidder:       b.Bidder,
			Quantity:     b.Quantity,
			PricePerUnit: copyInt(b.Amount),
		})
	}
	return nil
}
