package models

import "time"

// DeriveStatus projects the auction's lifecycle state at now from its stored
// fields alone, so the same inputs always give the same state.
//
// Settlement and cancellation are only ever taken from the ledger's flags.
// A sealed bid auction is in its reveal phase strictly after EndTime and
// before RevealDeadline; at EndTime itself it reports Ended.
func DeriveStatus(a *Auction, now time.Time) Status {
	t := now.Unix()

	switch {
	case a.Cancelled:
		return Cancelled
	case a.Settled:
		return Settled
	case t < a.StartTime:
		return Pending
	case t < a.EndTime:
		return Active
	case a.Mechanism == SealedBid && t > a.EndTime && t < a.RevealDeadline:
		return RevealPhase
	default:
		return Ended
	}
}

// AcceptsBids reports whether a bid placed at now falls inside the bidding window
func AcceptsBids(a *Auction, now time.Time) bool {
	return DeriveStatus(a, now) == Active
}

// CanCancel checks whether the seller may cancel the auction at now.
// Only pending auctions and active auctions without bids can be cancelled.
func CanCancel(a *Auction, now time.Time) error {
	switch status := DeriveStatus(a, now); status {
	case Pending:
		return nil
	case Active:
		if a.TotalBids > 0 {
			return CannotCancelError{a.Id, a.TotalBids}
		}
		return nil
	default:
		return TransitionError{a.Id, status, AuctionCancelled}
	}
}

// CanSettle checks whether a settlement (winner reveal) is legal at now
func CanSettle(a *Auction, now time.Time) error {
	switch status := DeriveStatus(a, now); status {
	case Ended, RevealPhase:
		return nil
	default:
		return TransitionError{a.Id, status, WinnerRevealed}
	}
}
