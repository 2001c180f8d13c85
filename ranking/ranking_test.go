package ranking

import (
	"math/big"
	"testing"

	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

func bid(id string, bidder common.Address, amount int64, qty uint32, at int64) *models.Bid {
	return &models.Bid{
		Id:          id,
		AuctionId:   1,
		Bidder:      bidder,
		Amount:      big.NewInt(amount),
		Quantity:    qty,
		SubmittedAt: at,
	}
}

func sealedBid(id string, bidder common.Address) *models.Bid {
	return &models.Bid{
		Id:              id,
		AuctionId:       1,
		Bidder:          bidder,
		EncryptedAmount: common.HexToHash("0xfeed"),
		SubmittedAt:     50,
	}
}

func ids(ranked []RankedBid) []string {
	var out []string
	for _, r := range ranked {
		out = append(out, r.Bid.Id)
	}
	return out
}

func Test_BidPQueue(t *testing.T) {
	pq := NewBidPQueue()
	assert.True(t, pq.Empty())
	assert.Nil(t, pq.Pop())
	assert.Nil(t, pq.Head())

	pq.Push(bid("a", alice, 5, 0, 10))
	pq.Push(bid("b", bob, 9, 0, 30))
	pq.Push(bid("c", carol, 9, 0, 20))
	pq.Push(bid("d", alice, 1, 0, 5))
	pq.Push(sealedBid("e", bob))

	assert.Equal(t, 4, pq.Size())
	assert.Equal(t, "c", pq.Head().Id)

	var order []string
	for !pq.Empty() {
		order = append(order, pq.Pop().Id)
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, order)
}

func Test_BidPQueueKeepsInsertionOrderOnFullTies(t *testing.T) {
	pq := NewBidPQueue()
	for _, id := range []string{"x", "y", "z"} {
		pq.Push(bid(id, alice, 3, 0, 100))
	}
	assert.Equal(t, "x", pq.Pop().Id)
	assert.Equal(t, "y", pq.Pop().Id)
	assert.Equal(t, "z", pq.Pop().Id)
}

func Test_RankBidsEnglishLeader(t *testing.T) {
	a := &models.Auction{Id: 1, Mechanism: models.English, ReservePrice: big.NewInt(4)}
	ranked := RankBids(a, []*models.Bid{
		bid("a", alice, 5, 0, 10),
		sealedBid("s", carol),
		bid("b", bob, 7, 0, 20),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "a", "s"}, ids(ranked))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.True(t, ranked[0].IsWinning)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.False(t, ranked[1].IsWinning)
	assert.Equal(t, 0, ranked[2].Rank)
	for _, r := range ranked {
		assert.False(t, r.Refundable)
	}
}

func Test_RankBidsBelowReserve(t *testing.T) {
	a := &models.Auction{Id: 1, Mechanism: models.English, ReservePrice: big.NewInt(100)}
	ranked := RankBids(a, []*models.Bid{bid("a", alice, 5, 0, 10)})
	assert.False(t, ranked[0].IsWinning)
}

func Test_RankBidsSettledUsesLedgerWinner(t *testing.T) {
	a := &models.Auction{
		Id:            1,
		Mechanism:     models.SealedBid,
		Settled:       true,
		HighestBidder: bob,
		WinningAmount: big.NewInt(5),
	}
	ranked := RankBids(a, []*models.Bid{
		bid("a", alice, 9, 0, 10),
		bid("b", bob, 5, 0, 20),
		sealedBid("s", carol),
	})

	require.Len(t, ranked, 3)
	assert.False(t, ranked[0].IsWinning)
	assert.True(t, ranked[0].Refundable)
	assert.True(t, ranked[1].IsWinning)
	assert.False(t, ranked[1].Refundable)
	assert.True(t, ranked[2].Refundable)
}

func Test_RankBidsCancelledHasNoWinner(t *testing.T) {
	a := &models.Auction{Id: 1, Mechanism: models.English, Cancelled: true}
	ranked := RankBids(a, []*models.Bid{bid("a", alice, 9, 0, 10)})
	assert.False(t, ranked[0].IsWinning)
	assert.True(t, ranked[0].Refundable)
}

func Test_RankBidsBatchAllocatesSupply(t *testing.T) {
	a := &models.Auction{Id: 1, Mechanism: models.Batch, Supply: 5, ReservePrice: big.NewInt(2)}
	ranked := RankBids(a, []*models.Bid{
		bid("a", alice, 3, 2, 10),
		bid("b", bob, 4, 2, 20),
		bid("c", carol, 3, 3, 30),
		bid("d", carol, 1, 1, 5),
	})

	require.Equal(t, []string{"b", "a", "c", "d"}, ids(ranked))
	assert.Equal(t, uint32(2), ranked[0].Allocated)
	assert.Equal(t, uint32(2), ranked[1].Allocated)
	assert.Equal(t, uint32(1), ranked[2].Allocated)
	assert.True(t, ranked[2].IsWinning)
	assert.Equal(t, uint32(0), ranked[3].Allocated)
	assert.False(t, ranked[3].IsWinning)
}

func Test_ForBidder(t *testing.T) {
	a := &models.Auction{Id: 1, Mechanism: models.English}
	ranked := RankBids(a, []*models.Bid{
		bid("a", alice, 5, 0, 10),
		bid("b", bob, 7, 0, 20),
		bid("c", alice, 6, 0, 30),
	})

	mine := ForBidder(ranked, alice)
	require.Len(t, mine, 2)
	assert.Equal(t, 2, mine[0].Rank)
	assert.Equal(t, 3, mine[1].Rank)
	assert.Empty(t, ForBidder(ranked, carol))
}
