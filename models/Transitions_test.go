package models

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEvent_BidConfirmedEnglish(t *testing.T) {
	a := makeAuction(English)
	now := at(testStart + 100)

	next, err := ApplyEvent(a, Event{
		Kind:      BidConfirmed,
		Bid:       makeBid(a.Id, alice, milliEther(12), 0, testStart+50),
		NewBidder: true,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), next.TotalBids)
	assert.Equal(t, uint32(1), next.UniqueBidders)
	assert.Equal(t, 0, next.CurrentPrice.Cmp(milliEther(12)))

	// the input snapshot is untouched
	assert.Equal(t, uint32(0), a.TotalBids)
	assert.Nil(t, a.CurrentPrice)

	next, err = ApplyEvent(next, Event{
		Kind: BidConfirmed,
		Bid:  makeBid(a.Id, alice, milliEther(11), 0, testStart+60),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), next.TotalBids)
	assert.Equal(t, uint32(1), next.UniqueBidders)
	assert.Equal(t, 0, next.CurrentPrice.Cmp(milliEther(12)), "a lower bid doesn't lower the price")
}

func TestApplyEvent_BidOutsideWindow(t *testing.T) {
	a := makeAuction(English)

	for _, submittedAt := range []int64{testStart - 1, testEnd} {
		_, err := ApplyEvent(a, Event{
			Kind: BidConfirmed,
			Bid:  makeBid(a.Id, alice, milliEther(12), 0, submittedAt),
		}, at(testEnd+10))

		var transition TransitionError
		assert.True(t, errors.As(err, &transition), "submittedAt %d: got %v", submittedAt, err)
	}
}

func TestApplyEvent_BatchAllocations(t *testing.T) {
	a := makeAuction(Batch)
	a.Allocations = []Allocation{
		{Bidder: alice, Quantity: 3, PricePerUnit: milliEther(2)},
		{Bidder: bob, Quantity: 1, PricePerUnit: milliEther(3)},
	}
	assert.Equal(t, uint32(1), a.RemainingSupply())

	_, err := ApplyEvent(a, Event{
		Kind: BidConfirmed,
		Bid:  makeBid(a.Id, bob, milliEther(2), 2, testStart+10),
	}, at(testStart+20))
	var invalid ValidationError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, "quantity", invalid.Field)

	next, err := ApplyEvent(a, Event{
		Kind: BidConfirmed,
		Bid:  makeBid(a.Id, bob, milliEther(2), 1, testStart+10),
	}, at(testStart+20))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), next.RemainingSupply())
	assert.Len(t, next.Allocations, 3)
	assert.Len(t, a.Allocations, 2)
}

func TestApplyEvent_WinnerRevealed(t *testing.T) {
	a := makeAuction(SealedBid)
	a.ReservePrice = milliEther(5)
	a.TotalBids = 3

	_, err := ApplyEvent(a, Event{Kind: WinnerRevealed, Winner: alice, WinningAmount: milliEther(6)}, at(testEnd-1))
	assert.Error(t, err, "cannot settle while active")

	_, err = ApplyEvent(a, Event{Kind: WinnerRevealed, Winner: alice, WinningAmount: milliEther(4)}, at(testEnd+1))
	var invalid ValidationError
	assert.True(t, errors.As(err, &invalid), "below reserve: got %v", err)

	next, err := ApplyEvent(a, Event{Kind: WinnerRevealed, Winner: alice, WinningAmount: milliEther(6)}, at(testEnd+1))
	require.NoError(t, err)
	assert.Equal(t, Settled, DeriveStatus(next, at(testEnd+1)))
	assert.Equal(t, alice, next.HighestBidder)
	assert.True(t, next.HasWinner())

	_, err = ApplyEvent(next, Event{Kind: WinnerRevealed, Winner: alice, WinningAmount: milliEther(6)}, at(testEnd+2))
	assert.Error(t, err, "settling twice")
}

func TestApplyEvent_WinnerRevealedWithoutWinner(t *testing.T) {
	a := makeAuction(English)
	a.ReservePrice = milliEther(50)

	next, err := ApplyEvent(a, Event{Kind: WinnerRevealed}, at(testEnd+1))
	require.NoError(t, err)
	assert.True(t, next.Settled)
	assert.False(t, next.HasWinner())
}

func TestApplyEvent_Cancel(t *testing.T) {
	a := makeAuction(Dutch)

	next, err := ApplyEvent(a, Event{Kind: AuctionCancelled}, at(testStart+1))
	require.NoError(t, err)
	assert.Equal(t, Cancelled, DeriveStatus(next, at(testStart+1)))

	a.TotalBids = 1
	_, err = ApplyEvent(a, Event{Kind: AuctionCancelled}, at(testStart+1))
	var cannot CannotCancelError
	assert.True(t, errors.As(err, &cannot), "got %v", err)

	_, err = ApplyEvent(next, Event{Kind: AuctionCancelled}, at(testStart+2))
	assert.Error(t, err, "cancelled is terminal")
}

func TestApplyEvent_Claims(t *testing.T) {
	a := makeAuction(English)
	a.Settled = true
	a.HighestBidder = alice
	a.WinningAmount = milliEther(20)
	now := at(testEnd + 10)

	_, err := ApplyEvent(a, Event{Kind: ItemClaimed, Claimant: bob}, now)
	assert.Error(t, err)

	next, err := ApplyEvent(a, Event{Kind: ItemClaimed, Claimant: alice}, now)
	require.NoError(t, err)
	assert.True(t, next.ItemClaimed)

	_, err = ApplyEvent(next, Event{Kind: ItemClaimed, Claimant: alice}, now)
	assert.Error(t, err, "claimed twice")

	_, err = ApplyEvent(a, Event{Kind: RefundClaimed, Claimant: alice}, now)
	assert.Error(t, err, "the winner has no refund")

	_, err = ApplyEvent(a, Event{Kind: RefundClaimed, Claimant: bob}, now)
	assert.NoError(t, err)

	active := makeAuction(English)
	_, err = ApplyEvent(active, Event{Kind: RefundClaimed, Claimant: bob}, at(testStart+1))
	var transition TransitionError
	assert.True(t, errors.As(err, &transition), "got %v", err)

	cancelled := makeAuction(English)
	cancelled.Cancelled = true
	_, err = ApplyEvent(cancelled, Event{Kind: RefundClaimed, Claimant: common.HexToAddress("0x99")}, now)
	assert.NoError(t, err)
}

func TestApplyEvent_BidRevealed(t *testing.T) {
	a := makeAuction(SealedBid)
	a.TotalBids = 1

	sealed := NewPendingBid(a.Id, alice, testStart+50)
	sealed.EncryptedAmount = common.HexToHash("0xfeed")
	reveal := Event{Kind: BidRevealed, Bid: sealed, Claimant: alice}

	var transition TransitionError
	_, err := ApplyEvent(a, reveal, at(testStart+100))
	assert.True(t, errors.As(err, &transition), "still bidding: got %v", err)

	_, err = ApplyEvent(a, reveal, at(testEnd+3600))
	assert.True(t, errors.As(err, &transition), "after the deadline: got %v", err)

	next, err := ApplyEvent(a, reveal, at(testEnd+10))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next.TotalBids)
	assert.False(t, next.Settled)

	var invalid ValidationError
	_, err = ApplyEvent(a, Event{Kind: BidRevealed, Bid: sealed, Claimant: bob}, at(testEnd+10))
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "claimant", invalid.Field)

	opened := *sealed
	opened.IsRevealed = true
	_, err = ApplyEvent(a, Event{Kind: BidRevealed, Bid: &opened, Claimant: alice}, at(testEnd+10))
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "bid", invalid.Field)

	_, err = ApplyEvent(a, Event{Kind: BidRevealed, Claimant: alice}, at(testEnd+10))
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "bid", invalid.Field)
}
