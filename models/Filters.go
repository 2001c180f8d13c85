package models

import (
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SortKey selects the ordering used by SortAuctions
type SortKey uint8

const (
	SortByEndTime SortKey = iota
	SortByPrice
	SortByBids
	SortByCreated
)

// Filter narrows a list of auctions. Nil fields match everything.
type Filter struct {
	Mechanism *Mechanism
	Status    *Status
	Seller    *common.Address
	MinPrice  *big.Int
	MaxPrice  *big.Int

	SortBy     SortKey
	Descending bool
}

// FilterAuctions returns the auctions matching f at now, sorted as f asks.
// Status and price are derived at now, never taken from a listing.
func FilterAuctions(auctions []*Auction, f Filter, now time.Time) []*Auction {
	matched := make([]*Auction, 0, len(auctions))
	for _, a := range auctions {
		if f.Mechanism != nil && a.Mechanism != *f.Mechanism {
			continue
		}
		if f.Status != nil && DeriveStatus(a, now) != *f.Status {
			continue
		}
		if f.Seller != nil && a.Seller != *f.Seller {
			continue
		}
		if f.MinPrice != nil || f.MaxPrice != nil {
			price := displayPrice(a, now)
			if f.MinPrice != nil && price.Cmp(f.MinPrice) < 0 {
				continue
			}
			if f.MaxPrice != nil && price.Cmp(f.MaxPrice) > 0 {
				continue
			}
		}
		matched = append(matched, a)
	}

	SortAuctions(matched, f.SortBy, f.Descending, now)
	return matched
}

// SortAuctions sorts in place. Ties keep their relative order.
func SortAuctions(auctions []*Auction, by SortKey, descending bool, now time.Time) {
	less := func(i, j int) bool {
		a, b := auctions[i], auctions[j]
		switch by {
		case SortByPrice:
			return displayPrice(a, now).Cmp(displayPrice(b, now)) < 0
		case SortByBids:
			return a.TotalBids < b.TotalBids
		case SortByCreated:
			return a.Id < b.Id
		default:
			return a.EndTime < b.EndTime
		}
	}
	if descending {
		sort.SliceStable(auctions, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(auctions, less)
}

// displayPrice is the live price, or the starting price before the auction starts
func displayPrice(a *Auction, now time.Time) *big.Int {
	price, err := ComputeCurrentPrice(a, now)
	if err != nil {
		return orZero(a.StartingPrice)
	}
	return price
}
