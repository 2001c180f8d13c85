package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AuctionID identifies an auction on the auction contract
type AuctionID uint64

// Asset is the item being sold: a token on an NFT contract
type Asset struct {
	Contract common.Address `json:"contract"`
	TokenId  *big.Int       `json:"token_id"`
}

// Allocation is a batch auction unit allocation held by a bidder
type Allocation struct {
	Bidder       common.Address `json:"bidder"`
	Quantity     uint32         `json:"quantity"`
	PricePerUnit *big.Int       `json:"price_per_unit"`
}

// Auction is the last known ledger view of an auction.
// All amounts are in wei, all timestamps are unix seconds.
// Values handed out by the repository must be treated as immutable;
// use Copy before changing anything.
type Auction struct {
	Id        AuctionID      `json:"id"`
	Mechanism Mechanism      `json:"mechanism"`
	Seller    common.Address `json:"seller"`
	Asset     Asset          `json:"asset"`

	StartingPrice *big.Int `json:"starting_price"`
	ReservePrice  *big.Int `json:"reserve_price,omitempty"` // nil means no reserve
	CurrentPrice  *big.Int `json:"current_price,omitempty"` // nil until a bid is confirmed
	MinDeposit    *big.Int `json:"min_deposit"`

	// Dutch only
	PriceDecrement    *big.Int `json:"price_decrement,omitempty"`
	DecrementInterval int64    `json:"decrement_interval,omitempty"`

	StartTime      int64 `json:"start_time"`
	EndTime        int64 `json:"end_time"`
	RevealDeadline int64 `json:"reveal_deadline,omitempty"` // SealedBid only

	TotalBids     uint32 `json:"total_bids"`
	UniqueBidders uint32 `json:"unique_bidders"`

	// set by settlement
	HighestBidder common.Address `json:"highest_bidder"`
	WinningAmount *big.Int       `json:"winning_amount,omitempty"`

	Settled     bool `json:"settled"`
	Cancelled   bool `json:"cancelled"`
	ItemClaimed bool `json:"item_claimed"`

	// Batch only
	Supply        uint32       `json:"supply,omitempty"`
	MinBidPerUnit *big.Int     `json:"min_bid_per_unit,omitempty"`
	Allocations   []Allocation `json:"allocations,omitempty"`
}

func (a *Auction) String() string {
	return fmt.Sprintf("Auction#%d[%s seller=%s start=%d end=%d bids=%d]",
		a.Id, a.Mechanism, a.Seller.Hex(), a.StartTime, a.EndTime, a.TotalBids)
}

// Validate checks the creation-time invariants of an auction
func (a *Auction) Validate() error {
	if int(a.Mechanism) >= len(mechanismSlugs) {
		return ValidationError{"mechanism", a.Mechanism.String()}
	}
	if a.StartingPrice == nil || a.StartingPrice.Sign() < 0 {
		return ValidationError{"startingPrice", "must be a non-negative amount"}
	}
	if a.MinDeposit != nil && a.MinDeposit.Sign() < 0 {
		return ValidationError{"minDeposit", "must be non-negative"}
	}
	if a.ReservePrice != nil && a.ReservePrice.Sign() < 0 {
		return ValidationError{"reservePrice", "must be non-negative"}
	}
	if a.StartTime >= a.EndTime {
		return ValidationError{"endTime", "must be after startTime"}
	}

	switch a.Mechanism {
	case Dutch:
		if a.PriceDecrement == nil || a.PriceDecrement.Sign() < 0 {
			return ValidationError{"priceDecrement", "must be set and non-negative for a dutch auction"}
		}
		if a.DecrementInterval <= 0 {
			return ValidationError{"decrementInterval", "must be positive for a dutch auction"}
		}
	case SealedBid:
		if a.RevealDeadline <= a.EndTime {
			return ValidationError{"revealDeadline", "must be after endTime"}
		}
	case Batch:
		if a.Supply == 0 {
			return ValidationError{"supply", "must be at least 1 for a batch auction"}
		}
		if a.allocatedUnits() > uint64(a.Supply) {
			return ValidationError{"allocations", "exceed supply"}
		}
	}
	return nil
}

// RemainingSupply is the number of batch units not yet allocated
func (a *Auction) RemainingSupply() uint32 {
	allocated := a.allocatedUnits()
	if allocated >= uint64(a.Supply) {
		return 0
	}
	return a.Supply - uint32(allocated)
}

// AllocationsFromBids rebuilds batch allocations from confirmed bids in ledger order
func AllocationsFromBids(bids []*Bid) []Allocation {
	var allocs []Allocation
	for _, b := range bids {
		if b.Pending {
			continue
		}
		allocs = append(allocs, Allocation{
			Bidder:       b.Bidder,
			Quantity:     b.Quantity,
			PricePerUnit: copyInt(b.Amount),
		})
	}
	return allocs
}

func (a *Auction) allocatedUnits() uint64 {
	var total uint64
	for _, alloc := range a.Allocations {
		total += uint64(alloc.Quantity)
	}
	return total
}

// MeetsReserve reports whether amount is acceptable as a winning amount
func (a *Auction) MeetsReserve(amount *big.Int) bool {
	if a.ReservePrice == nil {
		return true
	}
	return amount != nil && amount.Cmp(a.ReservePrice) >= 0
}

// HasWinner reports whether settlement assigned a winner
func (a *Auction) HasWinner() bool {
	return a.Settled && a.HighestBidder != (common.Address{})
}

// Copy returns a deep copy of the auction
func (a *Auction) Copy() *Auction {
	c := *a
	c.Asset.TokenId = copyInt(a.Asset.TokenId)
	c.StartingPrice = copyInt(a.StartingPrice)
	c.ReservePrice = copyInt(a.ReservePrice)
	c.CurrentPrice = copyInt(a.CurrentPrice)
	c.MinDeposit = copyInt(a.MinDeposit)
	c.PriceDecrement = copyInt(a.PriceDecrement)
	c.WinningAmount = copyInt(a.WinningAmount)
	c.MinBidPerUnit = copyInt(a.MinBidPerUnit)
	if a.Allocations != nil {
		c.Allocations = make([]Allocation, len(a.Allocations))
		for i, alloc := range a.Allocations {
			alloc.PricePerUnit = copyInt(alloc.PricePerUnit)
			c.Allocations[i] = alloc
		}
	}
	return &c
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
