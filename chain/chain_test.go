package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/delta/fhe-auction-client/models"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testSeller       = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438bEb7")
	alice            = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob              = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	testChainID      = big.NewInt(1337)
)

// fakeBackend answers calls from canned data
type fakeBackend struct {
	sync.Mutex

	callResult []byte
	callErr    error
	calls      []ethereum.CallMsg

	logs    []types.Log
	filters int

	// receipt is returned after receiptAfter lookups
	receipt      *types.Receipt
	receiptAfter int
	lookups      int

	tx *types.Transaction
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.Lock()
	defer f.Unlock()
	f.calls = append(f.calls, msg)
	return f.callResult, f.callErr
}

func (f *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.Lock()
	defer f.Unlock()
	f.filters++
	return f.logs, nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.Lock()
	defer f.Unlock()
	f.lookups++
	if f.receipt == nil || f.lookups <= f.receiptAfter {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if f.tx == nil {
		return nil, false, ethereum.NotFound
	}
	return f.tx, false, nil
}

type recordingWallet struct {
	sent []*Call
	ref  TxRef
}

func (w *recordingWallet) CurrentAccount() (common.Address, bool) {
	return alice, true
}

func (w *recordingWallet) SignAndSend(ctx context.Context, call *Call) (TxRef, error) {
	w.sent = append(w.sent, call)
	return w.ref, nil
}

func newTestLedger(t *testing.T, backend *fakeBackend, wallet Wallet) *EthLedger {
	contract, err := NewContract(testContractAddr)
	require.NoError(t, err)
	return NewEthLedger(backend, wallet, contract, testChainID, 5*time.Millisecond)
}

func packAuction(t *testing.T, c *Contract, mechanism models.Mechanism, totalBids uint32) []byte {
	out, err := c.ABI().Methods["getAuction"].Outputs.Pack(
		testSeller,
		uint8(mechanism),
		common.HexToAddress("0x01"),
		big.NewInt(7),
		big.NewInt(1000),   // startingPrice
		big.NewInt(0),      // reservePrice
		big.NewInt(0),      // currentPrice
		big.NewInt(10),     // minDeposit
		big.NewInt(0),      // priceDecrement
		uint64(0),          // decrementInterval
		uint64(1700000000), // startTime
		uint64(1700086400), // endTime
		uint64(0),          // revealDeadline
		totalBids,          // totalBids
		uint32(1),          // uniqueBidders
		common.Address{},   // highestBidder
		big.NewInt(0),      // winningAmount
		false,              // settled
		false,              // cancelled
		false,              // itemClaimed
		uint32(5),          // supply
		big.NewInt(100),    // minBidPerUnit
	)
	require.NoError(t, err)
	return out
}

func bidPlacedLog(t *testing.T, c *Contract, id uint64, bidder common.Address, bidId int64, handle common.Hash, amount int64, qty uint32) types.Log {
	ev := c.ABI().Events["BidPlaced"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(bidId), [32]byte(handle), big.NewInt(amount), qty, uint64(1700000100))
	require.NoError(t, err)
	return types.Log{
		Address: testContractAddr,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
			common.BytesToHash(bidder.Bytes()),
		},
		Data:   data,
		TxHash: common.BigToHash(big.NewInt(bidId + 1000)),
	}
}

func bidRevealedLog(t *testing.T, c *Contract, id uint64, bidId int64, amount int64) types.Log {
	ev := c.ABI().Events["BidRevealed"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(amount))
	require.NoError(t, err)
	return types.Log{
		Address: testContractAddr,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
			common.BigToHash(big.NewInt(bidId)),
		},
		Data: data,
	}
}

func TestContractCalls(t *testing.T) {
	c, err := NewContract(testContractAddr)
	require.NoError(t, err)

	call, err := c.PlaceSealedBid(3, common.HexToHash("0xbeef"), []byte{1, 2, 3}, big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, "placeSealedBid", call.Method)
	assert.Equal(t, testContractAddr, call.To)
	assert.Equal(t, c.ABI().Methods["placeSealedBid"].ID, call.Data[:4])
	assert.Equal(t, int64(5), call.Value.Int64())

	args, err := c.ABI().Methods["placeBid"].Inputs.Unpack(mustCall(t)(c.PlaceBid(3, big.NewInt(100), 4, big.NewInt(400))).Data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(3), args[0].(*big.Int).Int64())
	assert.Equal(t, int64(100), args[1].(*big.Int).Int64())
	assert.Equal(t, uint32(4), args[2].(uint32))

	for _, build := range []func(models.AuctionID) (*Call, error){c.CancelAuction, c.RevealWinner, c.ClaimItem, c.ClaimRefund} {
		call, err := build(9)
		require.NoError(t, err)
		assert.Nil(t, call.Value)
		assert.Len(t, call.Data, 4+32)
	}
}

func TestContractRevealBid(t *testing.T) {
	c, err := NewContract(testContractAddr)
	require.NoError(t, err)

	nonce := [32]byte{0xaa, 0xbb}
	call, err := c.RevealBid(3, big.NewInt(12), 2500, nonce)
	require.NoError(t, err)
	assert.Equal(t, "revealBid", call.Method)
	assert.Nil(t, call.Value)

	args, err := c.ABI().Methods["revealBid"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(3), args[0].(*big.Int).Int64())
	assert.Equal(t, int64(12), args[1].(*big.Int).Int64())
	assert.Equal(t, uint64(2500), args[2].(uint64))
	assert.Equal(t, nonce, args[3].([32]byte))
}

func TestContractCreateAuction(t *testing.T) {
	c, err := NewContract(testContractAddr)
	require.NoError(t, err)

	a := &models.Auction{
		Mechanism:      models.SealedBid,
		Asset:          models.Asset{Contract: common.HexToAddress("0x01"), TokenId: big.NewInt(7)},
		StartingPrice:  big.NewInt(100),
		MinDeposit:     big.NewInt(10),
		StartTime:      1700000000,
		EndTime:        1700086400,
		RevealDeadline: 1700090000,
	}
	handle := common.HexToHash("0xfeed")

	call, err := c.CreateAuction(a, handle, []byte{9})
	require.NoError(t, err)
	assert.Equal(t, "createAuction", call.Method)
	assert.Nil(t, call.Value)

	args, err := c.ABI().Methods["createAuction"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	require.Len(t, args, 14)
	assert.Equal(t, uint8(models.SealedBid), args[0].(uint8))
	assert.Equal(t, a.Asset.Contract, args[1].(common.Address))
	assert.Equal(t, int64(100), args[3].(*big.Int).Int64())
	assert.Equal(t, int64(0), args[5].(*big.Int).Int64(), "no price decrement")
	assert.Equal(t, uint64(1700090000), args[9].(uint64))
	assert.Equal(t, [32]byte(handle), args[12].([32]byte))
	assert.Equal(t, []byte{9}, args[13].([]byte))

	// no reserve
	call, err = c.CreateAuction(a, common.Hash{}, nil)
	require.NoError(t, err)
	args, err = c.ABI().Methods["createAuction"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, args[12].([32]byte))
	assert.Empty(t, args[13].([]byte))
}

func mustCall(t *testing.T) func(*Call, error) *Call {
	return func(c *Call, err error) *Call {
		require.NoError(t, err)
		return c
	}
}

func TestSubmit(t *testing.T) {
	wallet := &recordingWallet{ref: common.HexToHash("0x01")}
	ledger := newTestLedger(t, &fakeBackend{}, wallet)

	call, err := ledger.Contract().ClaimItem(1)
	require.NoError(t, err)

	ref, err := ledger.Submit(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, wallet.ref, ref)
	assert.Equal(t, []*Call{call}, wallet.sent)

	readOnly := newTestLedger(t, &fakeBackend{}, ReadOnlyWallet{})
	_, err = readOnly.Submit(context.Background(), call)
	assert.Equal(t, ErrNoAccount, err)
}

func TestAwaitConfirmation(t *testing.T) {
	backend := &fakeBackend{
		receipt:      &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42), GasUsed: 21000},
		receiptAfter: 3,
	}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})

	ref := common.HexToHash("0xabc")
	receipt, err := ledger.AwaitConfirmation(context.Background(), ref, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ref, receipt.TxRef)
	assert.Equal(t, uint64(42), receipt.BlockNumber)
	assert.Equal(t, 4, backend.lookups)
}

func TestAwaitConfirmation_Timeout(t *testing.T) {
	ledger := newTestLedger(t, &fakeBackend{}, ReadOnlyWallet{})

	_, err := ledger.AwaitConfirmation(context.Background(), common.HexToHash("0xabc"), 30*time.Millisecond)
	assert.True(t, errors.Is(err, ErrConfirmationTimeout), "got %v", err)
	assert.False(t, errors.Is(err, ErrReverted))
}

func TestAwaitConfirmation_Cancelled(t *testing.T) {
	ledger := newTestLedger(t, &fakeBackend{}, ReadOnlyWallet{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := ledger.AwaitConfirmation(ctx, common.HexToHash("0xabc"), time.Minute)
	assert.Equal(t, context.Canceled, err)
}

func TestAwaitConfirmation_Reverted(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := testContractAddr
	tx, err := types.SignTx(
		types.NewTx(&types.LegacyTx{Nonce: 1, To: &to, Gas: 100000, GasPrice: big.NewInt(1), Value: big.NewInt(5)}),
		types.LatestSignerForChainID(testChainID),
		key,
	)
	require.NoError(t, err)

	backend := &fakeBackend{
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(42)},
		tx:      tx,
		callErr: errors.New("execution reverted: Auction not active"),
	}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})

	_, err = ledger.AwaitConfirmation(context.Background(), tx.Hash(), time.Second)
	require.True(t, errors.Is(err, ErrReverted), "got %v", err)

	var reverted *RevertedError
	require.True(t, errors.As(err, &reverted))
	assert.Equal(t, "execution reverted: Auction not active", reverted.Reason)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), backend.calls[0].From)
}

func TestGetAuction(t *testing.T) {
	backend := &fakeBackend{}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})
	backend.callResult = packAuction(t, ledger.Contract(), models.English, 0)

	a, err := ledger.GetAuction(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, models.AuctionID(4), a.Id)
	assert.Equal(t, models.English, a.Mechanism)
	assert.Equal(t, testSeller, a.Seller)
	assert.Equal(t, int64(1000), a.StartingPrice.Int64())
	assert.Nil(t, a.ReservePrice, "zero reserve means none")
	assert.Nil(t, a.CurrentPrice)
	assert.Equal(t, int64(1700086400), a.EndTime)
	assert.NoError(t, a.Validate())

	require.Len(t, backend.calls, 1)
	assert.Equal(t, testContractAddr, *backend.calls[0].To)
}

func TestGetAuction_BatchDoesNotScanLogs(t *testing.T) {
	backend := &fakeBackend{}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})
	c := ledger.Contract()
	backend.callResult = packAuction(t, c, models.Batch, 2)
	backend.logs = []types.Log{
		bidPlacedLog(t, c, 4, alice, 1, common.Hash{}, 120, 3),
		bidPlacedLog(t, c, 4, bob, 2, common.Hash{}, 150, 1),
	}

	a, err := ledger.GetAuction(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), a.TotalBids)
	assert.Empty(t, a.Allocations, "allocations come from the bid list")
	assert.Equal(t, 0, backend.filters)

	bids, err := ledger.GetBids(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.filters)

	a.Allocations = models.AllocationsFromBids(bids)
	require.Len(t, a.Allocations, 2)
	assert.Equal(t, alice, a.Allocations[0].Bidder)
	assert.Equal(t, uint32(3), a.Allocations[0].Quantity)
	assert.Equal(t, uint32(1), a.RemainingSupply())
}

func TestGetAuction_NotFound(t *testing.T) {
	backend := &fakeBackend{}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})

	out, err := ledger.Contract().ABI().Methods["getAuction"].Outputs.Pack(
		common.Address{}, uint8(0), common.Address{}, big.NewInt(0),
		big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0),
		uint64(0), uint64(0), uint64(0), uint64(0), uint32(0), uint32(0),
		common.Address{}, big.NewInt(0), false, false, false, uint32(0), big.NewInt(0),
	)
	require.NoError(t, err)
	backend.callResult = out

	_, err = ledger.GetAuction(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrAuctionNotFound), "got %v", err)
}

func TestGetBids(t *testing.T) {
	backend := &fakeBackend{}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})
	c := ledger.Contract()
	handle := common.HexToHash("0x1234")
	backend.logs = []types.Log{
		bidPlacedLog(t, c, 4, alice, 1, handle, 0, 0),
		bidPlacedLog(t, c, 4, bob, 2, common.HexToHash("0x5678"), 0, 0),
		bidRevealedLog(t, c, 4, 1, 700),
	}

	bids, err := ledger.GetBids(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, bids, 2)

	assert.Equal(t, "1", bids[0].Id)
	assert.Equal(t, alice, bids[0].Bidder)
	assert.Equal(t, handle, bids[0].EncryptedAmount)
	assert.True(t, bids[0].IsRevealed)
	assert.Equal(t, int64(700), bids[0].Amount.Int64())
	assert.False(t, bids[0].Pending)

	assert.Equal(t, bob, bids[1].Bidder)
	assert.True(t, bids[1].IsSealed())
	assert.Nil(t, bids[1].Amount)
}

func TestGetAuctionCount(t *testing.T) {
	backend := &fakeBackend{}
	ledger := newTestLedger(t, backend, ReadOnlyWallet{})

	out, err := ledger.Contract().ABI().Methods["auctionCount"].Outputs.Pack(big.NewInt(12))
	require.NoError(t, err)
	backend.callResult = out

	count, err := ledger.GetAuctionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), count)
}
