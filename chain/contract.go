package chain

import (
	"math/big"
	"strings"

	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Contract builds calls against a deployed auction contract
type Contract struct {
	Address common.Address
	abi     abi.ABI
}

// NewContract parses the auction ABI for the contract at address
func NewContract(address common.Address) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(AuctionABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing auction ABI")
	}
	return &Contract{Address: address, abi: parsed}, nil
}

// ABI returns the parsed contract ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

func (c *Contract) call(method string, value *big.Int, args ...interface{}) (*Call, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "packing %s", method)
	}
	return &Call{
		To:     c.Address,
		Method: method,
		Data:   data,
		Value:  value,
	}, nil
}

func idArg(id models.AuctionID) *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

// PlaceSealedBid sends an encrypted bid along with the deposit in wei
func (c *Contract) PlaceSealedBid(id models.AuctionID, handle common.Hash, proof []byte, value *big.Int) (*Call, error) {
	return c.call("placeSealedBid", value, idArg(id), [32]byte(handle), proof)
}

// PlaceBid sends a plaintext bid. value is amount × quantity.
func (c *Contract) PlaceBid(id models.AuctionID, amount *big.Int, quantity uint32, value *big.Int) (*Call, error) {
	return c.call("placeBid", value, idArg(id), amount, quantity)
}

func (c *Contract) CancelAuction(id models.AuctionID) (*Call, error) {
	return c.call("cancelAuction", nil, idArg(id))
}

func (c *Contract) RevealWinner(id models.AuctionID) (*Call, error) {
	return c.call("revealWinner", nil, idArg(id))
}

func (c *Contract) ClaimItem(id models.AuctionID) (*Call, error) {
	return c.call("claimItem", nil, idArg(id))
}

func (c *Contract) ClaimRefund(id models.AuctionID) (*Call, error) {
	return c.call("claimRefund", nil, idArg(id))
}

// RevealBid opens a sealed bid. units is the amount in gwei that was encrypted,
// nonce the one its commitment was built with.
func (c *Contract) RevealBid(id models.AuctionID, bidId *big.Int, units uint64, nonce [32]byte) (*Call, error) {
	return c.call("revealBid", nil, idArg(id), bidId, units, nonce)
}

// CreateAuction lists a new auction. The reserve price only goes on chain
// encrypted: handle and proof come from the encryptor, or are empty when
// there's no reserve.
func (c *Contract) CreateAuction(a *models.Auction, handle common.Hash, proof []byte) (*Call, error) {
	if proof == nil {
		proof = []byte{}
	}
	return c.call("createAuction", nil,
		uint8(a.Mechanism),
		a.Asset.Contract,
		bigOrZero(a.Asset.TokenId),
		bigOrZero(a.StartingPrice),
		bigOrZero(a.MinDeposit),
		bigOrZero(a.PriceDecrement),
		uint64(a.DecrementInterval),
		uint64(a.StartTime),
		uint64(a.EndTime),
		uint64(a.RevealDeadline),
		a.Supply,
		bigOrZero(a.MinBidPerUnit),
		[32]byte(handle),
		proof,
	)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
