package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	testStart int64 = 1700000000
	testEnd   int64 = testStart + 86400
)

var (
	testSeller = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438bEb7")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func at(t int64) time.Time {
	return time.Unix(t, 0)
}

func wei(v int64) *big.Int {
	return big.NewInt(v)
}

// milliEther converts an amount in milli-ether to wei
func milliEther(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), big.NewInt(1e15))
}

func makeAuction(m Mechanism) *Auction {
	a := &Auction{
		Id:            1,
		Mechanism:     m,
		Seller:        testSeller,
		Asset:         Asset{Contract: common.HexToAddress("0x01"), TokenId: big.NewInt(7)},
		StartingPrice: milliEther(10),
		MinDeposit:    milliEther(1),
		StartTime:     testStart,
		EndTime:       testEnd,
	}
	switch m {
	case SealedBid:
		a.RevealDeadline = testEnd + 3600
	case Dutch:
		a.StartingPrice = wei(10)
		a.PriceDecrement = wei(1)
		a.DecrementInterval = 3600
	case Batch:
		a.Supply = 5
		a.MinBidPerUnit = milliEther(2)
	}
	return a
}

func makeBid(auctionId AuctionID, bidder common.Address, amount *big.Int, qty uint32, submittedAt int64) *Bid {
	b := NewPendingBid(auctionId, bidder, submittedAt)
	b.Amount = amount
	b.Quantity = qty
	return b
}
