// Package chain is the boundary to the ledger and the wallet. The ledger is
// the source of truth for every auction; the wallet is the only thing that
// signs. EthLedger adapts an Ethereum JSON-RPC node and the auction contract
// to both the Ledger and AuctionReader interfaces.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "chain",
})

// Init configures the chain package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "chain",
	})
}

// TxRef identifies a submitted transaction
type TxRef = common.Hash

// Call is a contract call ready to be signed and sent
type Call struct {
	To     common.Address
	Method string
	Data   []byte
	// Value is the wei sent along with the call. nil means none.
	Value *big.Int
}

func (c *Call) String() string {
	value := "0"
	if c.Value != nil {
		value = c.Value.String()
	}
	return fmt.Sprintf("Call[%s to=%s value=%s]", c.Method, c.To.Hex(), value)
}

// Receipt is a mined, successful transaction
type Receipt struct {
	TxRef       TxRef
	BlockNumber uint64
	GasUsed     uint64
}

var (
	// ErrConfirmationTimeout is returned when a transaction isn't mined in time.
	// The transaction may still be mined later.
	ErrConfirmationTimeout = errors.New("timed out waiting for confirmation")
	// ErrReverted matches every RevertedError
	ErrReverted = errors.New("transaction reverted")
	// ErrNoAccount is returned by wallets that have no connected account
	ErrNoAccount = errors.New("wallet not connected")
)

// RevertedError is returned when a transaction was mined but failed
type RevertedError struct {
	TxRef  TxRef
	Reason string
}

func (e *RevertedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxRef.Hex())
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxRef.Hex(), e.Reason)
}

func (e *RevertedError) Is(target error) bool {
	return target == ErrReverted
}

// Wallet is the user's identity provider. The core never sees keys.
type Wallet interface {
	CurrentAccount() (common.Address, bool)
	SignAndSend(ctx context.Context, call *Call) (TxRef, error)
}

// Ledger submits calls and waits for them to be mined
type Ledger interface {
	Submit(ctx context.Context, call *Call) (TxRef, error)
	AwaitConfirmation(ctx context.Context, ref TxRef, timeout time.Duration) (*Receipt, error)
}

// AuctionReader reads auctions and their bids off the ledger
type AuctionReader interface {
	GetAuction(ctx context.Context, id models.AuctionID) (*models.Auction, error)
	GetBids(ctx context.Context, id models.AuctionID) ([]*models.Bid, error)
	GetAuctionCount(ctx context.Context) (uint64, error)
}

// ReadOnlyWallet has no account and refuses to sign
type ReadOnlyWallet struct{}

func (ReadOnlyWallet) CurrentAccount() (common.Address, bool) {
	return common.Address{}, false
}

func (ReadOnlyWallet) SignAndSend(ctx context.Context, call *Call) (TxRef, error) {
	return TxRef{}, ErrNoAccount
}
