package chain

import (
	"context"
	"math/big"

	"github.com/delta/fhe-auction-client/models"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrAuctionNotFound is returned for ids the contract doesn't know about
var ErrAuctionNotFound = errors.New("auction not found")

// auctionView mirrors the outputs of getAuction
type auctionView struct {
	Seller            common.Address
	Mechanism         uint8
	TokenContract     common.Address
	TokenId           *big.Int
	StartingPrice     *big.Int
	ReservePrice      *big.Int
	CurrentPrice      *big.Int
	MinDeposit        *big.Int
	PriceDecrement    *big.Int
	DecrementInterval uint64
	StartTime         uint64
	EndTime           uint64
	RevealDeadline    uint64
	TotalBids         uint32
	UniqueBidders     uint32
	HighestBidder     common.Address
	WinningAmount     *big.Int
	Settled           bool
	Cancelled         bool
	ItemClaimed       bool
	Supply            uint32
	MinBidPerUnit     *big.Int
}

// bidPlacedEvent holds the non-indexed fields of BidPlaced
type bidPlacedEvent struct {
	BidId           *big.Int
	EncryptedAmount [32]byte
	Amount          *big.Int
	Quantity        uint32
	Timestamp       uint64
}

type bidRevealedEvent struct {
	Amount *big.Int
}

func (l *EthLedger) read(ctx context.Context, method string, out interface{}, args ...interface{}) error {
	data, err := l.contract.abi.Pack(method, args...)
	if err != nil {
		return errors.Wrapf(err, "packing %s", method)
	}
	to := l.contract.Address
	raw, err := l.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return errors.Wrapf(err, "calling %s", method)
	}
	if err := l.contract.abi.UnpackIntoInterface(out, method, raw); err != nil {
		return errors.Wrapf(err, "unpacking %s", method)
	}
	return nil
}

// GetAuctionCount returns the number of auctions ever created
func (l *EthLedger) GetAuctionCount(ctx context.Context) (uint64, error) {
	count := new(big.Int)
	if err := l.read(ctx, "auctionCount", &count); err != nil {
		return 0, err
	}
	return count.Uint64(), nil
}

// GetAuction reads an auction's stored fields. Batch allocations aren't
// stored on chain; use models.AllocationsFromBids on the result of GetBids.
func (l *EthLedger) GetAuction(ctx context.Context, id models.AuctionID) (*models.Auction, error) {
	var log = logger.WithFields(logrus.Fields{
		"method":   "GetAuction",
		"param_id": id,
	})

	var v auctionView
	if err := l.read(ctx, "getAuction", &v, idArg(id)); err != nil {
		log.Errorf("Failed: '%s'", err)
		return nil, err
	}
	if v.Seller == (common.Address{}) {
		return nil, errors.Wrapf(ErrAuctionNotFound, "auction %d", id)
	}
	if int(v.Mechanism) > int(models.Batch) {
		return nil, models.UnknownEnumError{Kind: "mechanism", Value: models.Mechanism(v.Mechanism).String()}
	}

	a := &models.Auction{
		Id:                id,
		Mechanism:         models.Mechanism(v.Mechanism),
		Seller:            v.Seller,
		Asset:             models.Asset{Contract: v.TokenContract, TokenId: v.TokenId},
		StartingPrice:     v.StartingPrice,
		ReservePrice:      nonZero(v.ReservePrice),
		CurrentPrice:      nonZero(v.CurrentPrice),
		MinDeposit:        v.MinDeposit,
		PriceDecrement:    nonZero(v.PriceDecrement),
		DecrementInterval: int64(v.DecrementInterval),
		StartTime:         int64(v.StartTime),
		EndTime:           int64(v.EndTime),
		RevealDeadline:    int64(v.RevealDeadline),
		TotalBids:         v.TotalBids,
		UniqueBidders:     v.UniqueBidders,
		HighestBidder:     v.HighestBidder,
		WinningAmount:     nonZero(v.WinningAmount),
		Settled:           v.Settled,
		Cancelled:         v.Cancelled,
		ItemClaimed:       v.ItemClaimed,
		Supply:            v.Supply,
		MinBidPerUnit:     nonZero(v.MinBidPerUnit),
	}

	log.Debugf("Read %s", a)
	return a, nil
}

// GetBids returns the confirmed bids of an auction in ledger order.
// Sealed bids carry an amount only once revealed.
func (l *EthLedger) GetBids(ctx context.Context, id models.AuctionID) ([]*models.Bid, error) {
	var log = logger.WithFields(logrus.Fields{
		"method":   "GetBids",
		"param_id": id,
	})

	placed := l.contract.abi.Events["BidPlaced"]
	revealed := l.contract.abi.Events["BidRevealed"]

	logs, err := l.backend.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{l.contract.Address},
		Topics: [][]common.Hash{
			{placed.ID, revealed.ID},
			{common.BigToHash(idArg(id))},
		},
	})
	if err != nil {
		log.Errorf("Failed to filter logs: '%s'", err)
		return nil, errors.Wrap(err, "filtering bid logs")
	}

	var (
		bids []*models.Bid
		byId = make(map[string]*models.Bid)
	)
	for _, lg := range logs {
		if len(lg.Topics) == 0 || lg.Removed {
			continue
		}
		switch lg.Topics[0] {
		case placed.ID:
			b, err := l.decodeBidPlaced(id, lg)
			if err != nil {
				return nil, err
			}
			bids = append(bids, b)
			byId[b.Id] = b
		case revealed.ID:
			if len(lg.Topics) < 3 {
				continue
			}
			var ev bidRevealedEvent
			if err := l.contract.abi.UnpackIntoInterface(&ev, "BidRevealed", lg.Data); err != nil {
				return nil, errors.Wrap(err, "unpacking BidRevealed")
			}
			if b, ok := byId[lg.Topics[2].Big().String()]; ok {
				b.Amount = ev.Amount
				b.IsRevealed = true
			}
		}
	}

	log.Debugf("Read %d bids", len(bids))
	return bids, nil
}

func (l *EthLedger) decodeBidPlaced(id models.AuctionID, lg types.Log) (*models.Bid, error) {
	if len(lg.Topics) < 3 {
		return nil, errors.Errorf("BidPlaced log %s has %d topics", lg.TxHash.Hex(), len(lg.Topics))
	}
	var ev bidPlacedEvent
	if err := l.contract.abi.UnpackIntoInterface(&ev, "BidPlaced", lg.Data); err != nil {
		return nil, errors.Wrap(err, "unpacking BidPlaced")
	}

	b := &models.Bid{
		Id:              ev.BidId.String(),
		AuctionId:       id,
		Bidder:          common.BytesToAddress(lg.Topics[2].Bytes()),
		EncryptedAmount: common.Hash(ev.EncryptedAmount),
		Quantity:        ev.Quantity,
		SubmittedAt:     int64(ev.Timestamp),
		TransactionRef:  lg.TxHash,
	}
	if b.EncryptedAmount == (common.Hash{}) {
		b.Amount = ev.Amount
	}
	return b, nil
}

func nonZero(v *big.Int) *big.Int {
	if v == nil || v.Sign() == 0 {
		return nil
	}
	return v
}
