package listing

import (
	"math/big"
	"strings"

	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// auctionDTO is an auction as served by the listing service.
// Amounts are decimal wei strings, times are unix milliseconds.
type auctionDTO struct {
	Id                string `json:"id"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	Seller            string `json:"seller"`
	NftContract       string `json:"nftContract"`
	TokenId           string `json:"tokenId"`
	StartingPrice     string `json:"startingPrice"`
	ReservePrice      string `json:"reservePrice"`
	CurrentPrice      string `json:"currentPrice"`
	PriceDecrement    string `json:"priceDecrement"`
	DecrementInterval int64  `json:"decrementInterval"`
	StartTime         int64  `json:"startTime"`
	EndTime           int64  `json:"endTime"`
	RevealTime        int64  `json:"revealTime"`
	MinDeposit        string `json:"minDeposit"`
	TotalBids         uint32 `json:"totalBids"`
	UniqueBidders     uint32 `json:"uniqueBidders"`
	Winner            string `json:"winner"`
	WinningBid        string `json:"winningBid"`
	Supply            uint32 `json:"supply"`
	MinBidPerUnit     string `json:"minBidPerUnit"`
	Allocations       []struct {
		Bidder       string `json:"bidder"`
		Quantity     uint32 `json:"quantity"`
		PricePerUnit string `json:"pricePerUnit"`
	} `json:"allocations"`
}

type bidDTO struct {
	Id              string `json:"id"`
	AuctionId       string `json:"auctionId"`
	Bidder          string `json:"bidder"`
	Amount          string `json:"amount"`
	Timestamp       int64  `json:"timestamp"`
	IsRevealed      bool   `json:"isRevealed"`
	Quantity        uint32 `json:"quantity"`
	TransactionHash string `json:"transactionHash"`
}

// toModel converts the listing's view to the model. Only the settled and
// cancelled flags are taken from the listed status; the rest is derived.
func (d *auctionDTO) toModel() (*models.Auction, error) {
	id, err := parseId(d.Id)
	if err != nil {
		return nil, err
	}
	mechanism, err := models.ParseMechanism(d.Type)
	if err != nil {
		return nil, err
	}

	a := &models.Auction{
		Id:                id,
		Mechanism:         mechanism,
		Seller:            common.HexToAddress(d.Seller),
		Asset:             models.Asset{Contract: common.HexToAddress(d.NftContract)},
		DecrementInterval: d.DecrementInterval,
		StartTime:         d.StartTime / 1000,
		EndTime:           d.EndTime / 1000,
		RevealDeadline:    d.RevealTime / 1000,
		TotalBids:         d.TotalBids,
		UniqueBidders:     d.UniqueBidders,
		Supply:            d.Supply,
		Settled:           d.Status == models.Settled.String(),
		Cancelled:         d.Status == models.Cancelled.String(),
	}
	if d.Winner != "" {
		a.HighestBidder = common.HexToAddress(d.Winner)
	}

	amounts := []struct {
		field string
		in    string
		out   **big.Int
	}{
		{"tokenId", d.TokenId, &a.Asset.TokenId},
		{"startingPrice", d.StartingPrice, &a.StartingPrice},
		{"reservePrice", d.ReservePrice, &a.ReservePrice},
		{"currentPrice", d.CurrentPrice, &a.CurrentPrice},
		{"priceDecrement", d.PriceDecrement, &a.PriceDecrement},
		{"minDeposit", d.MinDeposit, &a.MinDeposit},
		{"winningBid", d.WinningBid, &a.WinningAmount},
		{"minBidPerUnit", d.MinBidPerUnit, &a.MinBidPerUnit},
	}
	for _, amt := range amounts {
		if *amt.out, err = parseAmount(amt.field, amt.in); err != nil {
			return nil, err
		}
	}
	if a.StartingPrice == nil {
		a.StartingPrice = new(big.Int)
	}

	for _, alloc := range d.Allocations {
		price, err := parseAmount("pricePerUnit", alloc.PricePerUnit)
		if err != nil {
			return nil, err
		}
		a.Allocations = append(a.Allocations, models.Allocation{
			Bidder:       common.HexToAddress(alloc.Bidder),
			Quantity:     alloc.Quantity,
			PricePerUnit: price,
		})
	}
	return a, nil
}

// toModel converts a listed bid. Sealed bids carry their ciphertext handle as the amount.
func (d *bidDTO) toModel() (*models.Bid, error) {
	auctionId, err := parseId(d.AuctionId)
	if err != nil {
		return nil, err
	}

	b := &models.Bid{
		Id:             d.Id,
		AuctionId:      auctionId,
		Bidder:         common.HexToAddress(d.Bidder),
		Quantity:       d.Quantity,
		SubmittedAt:    d.Timestamp / 1000,
		IsRevealed:     d.IsRevealed,
		TransactionRef: common.HexToHash(d.TransactionHash),
	}
	if strings.HasPrefix(d.Amount, "0x") {
		b.EncryptedAmount = common.HexToHash(d.Amount)
		return b, nil
	}
	if b.Amount, err = parseAmount("amount", d.Amount); err != nil {
		return nil, err
	}
	return b, nil
}

func parseId(s string) (models.AuctionID, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, errors.Errorf("bad auction id %q", s)
	}
	return models.AuctionID(v.Uint64()), nil
}

// parseAmount parses a decimal wei string. Empty means absent.
func parseAmount(field, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("bad %s %q", field, s)
	}
	return v, nil
}
