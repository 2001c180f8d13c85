package models

import (
	"math/big"
	"time"
)

// englishIncrementPercent is the minimum raise over the current price of an english auction
const englishIncrementPercent = 5

// ComputeCurrentPrice returns the price to show a prospective bidder at now.
//
// Dutch auctions decay by PriceDecrement every DecrementInterval seconds from
// StartingPrice and never go below zero. All other mechanisms report the last
// confirmed price, or StartingPrice if nothing was confirmed yet.
//
// The result is a fresh value the caller may keep or modify.
func ComputeCurrentPrice(a *Auction, now time.Time) (*big.Int, error) {
	t := now.Unix()
	if t < a.StartTime {
		return nil, ErrPriceNotStarted
	}

	if a.Mechanism == Dutch {
		return dutchPrice(a, t), nil
	}
	if a.CurrentPrice != nil {
		return new(big.Int).Set(a.CurrentPrice), nil
	}
	return orZero(a.StartingPrice), nil
}

func dutchPrice(a *Auction, t int64) *big.Int {
	price := orZero(a.StartingPrice)
	if a.DecrementInterval <= 0 || a.PriceDecrement == nil {
		return price
	}

	steps := (t - a.StartTime) / a.DecrementInterval
	drop := new(big.Int).Mul(a.PriceDecrement, big.NewInt(steps))
	price.Sub(price, drop)
	if price.Sign() < 0 {
		price.SetInt64(0)
	}
	return price
}

// MinimumBid returns the smallest amount (per unit for batch auctions) a bid may carry at now
//   - sealed bid: MinDeposit
//   - dutch:      the live price
//   - english:    CurrentPrice raised by 5% (rounded up), or StartingPrice before the first bid
//   - batch:      MinBidPerUnit, or MinDeposit if there's none
func MinimumBid(a *Auction, now time.Time) (*big.Int, error) {
	switch a.Mechanism {
	case Dutch:
		return ComputeCurrentPrice(a, now)
	case English:
		if a.CurrentPrice == nil || a.CurrentPrice.Sign() == 0 {
			return orZero(a.StartingPrice), nil
		}
		return raiseByPercent(a.CurrentPrice, englishIncrementPercent), nil
	case Batch:
		if a.MinBidPerUnit != nil {
			return new(big.Int).Set(a.MinBidPerUnit), nil
		}
		return orZero(a.MinDeposit), nil
	default:
		return orZero(a.MinDeposit), nil
	}
}

// raiseByPercent computes ceil(v * (100+pct) / 100)
func raiseByPercent(v *big.Int, pct int64) *big.Int {
	num := new(big.Int).Mul(v, big.NewInt(100+pct))
	hundred := big.NewInt(100)
	q, r := new(big.Int).QuoRem(num, hundred, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
