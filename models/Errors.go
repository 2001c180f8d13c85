package models

import (
	"fmt"

	"github.com/pkg/errors"
)

//
// List of errors
//

// ErrPriceNotStarted is returned when a price is asked for before the auction starts.
// There's no meaningful price to show at that point.
var ErrPriceNotStarted = errors.New("auction has not started yet, price is undefined")

// ValidationError is generated for bad user input or a malformed auction.
// No external call is made when it's returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CannotCancelError is generated when the seller tries to cancel an auction that already has bids
type CannotCancelError struct {
	AuctionId AuctionID
	TotalBids uint32
}

func (e CannotCancelError) Error() string {
	return fmt.Sprintf("Auction #%d already has %d bid(s). Cannot cancel now.", e.AuctionId, e.TotalBids)
}

// TransitionError is generated when an event isn't legal in the auction's current state
type TransitionError struct {
	AuctionId AuctionID
	From      Status
	Event     EventKind
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("Auction #%d: %s not allowed while %s", e.AuctionId, e.Event, e.From)
}

// UnknownEnumError is generated when parsing an unknown mechanism or status slug
type UnknownEnumError struct {
	Kind  string
	Value string
}

func (e UnknownEnumError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}
