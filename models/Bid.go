package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Bid is a bid on an auction. A bid starts out pending on the client and
// becomes durable once the ledger confirms its transaction.
type Bid struct {
	Id        string         `json:"id"`
	AuctionId AuctionID      `json:"auction_id"`
	Bidder    common.Address `json:"bidder"`

	// Amount is the plaintext amount in wei. It's nil for a sealed bid until revealed.
	Amount *big.Int `json:"amount,omitempty"`
	// EncryptedAmount is the ciphertext handle of a sealed bid
	EncryptedAmount common.Hash `json:"encrypted_amount"`
	// Quantity is the number of units bid for. Batch only.
	Quantity uint32 `json:"quantity,omitempty"`

	SubmittedAt    int64       `json:"submitted_at"`
	IsRevealed     bool        `json:"is_revealed"`
	TransactionRef common.Hash `json:"transaction_ref"`
	Pending        bool        `json:"pending"`
}

// NewPendingBid creates a bid that only exists on the client until it's confirmed
func NewPendingBid(auctionId AuctionID, bidder common.Address, submittedAt int64) *Bid {
	return &Bid{
		Id:          uuid.New().String(),
		AuctionId:   auctionId,
		Bidder:      bidder,
		SubmittedAt: submittedAt,
		Pending:     true,
	}
}

func (b *Bid) String() string {
	amount := "sealed"
	if b.Amount != nil {
		amount = b.Amount.String()
	}
	return fmt.Sprintf("Bid#%s[auction=%d bidder=%s amount=%s qty=%d pending=%t]",
		b.Id, b.AuctionId, b.Bidder.Hex(), amount, b.Quantity, b.Pending)
}

// IsSealed reports whether the amount is hidden behind a ciphertext handle
func (b *Bid) IsSealed() bool {
	return b.EncryptedAmount != (common.Hash{}) && !b.IsRevealed
}

// Confirm marks the bid durable under the given transaction
func (b *Bid) Confirm(ref common.Hash) {
	b.TransactionRef = ref
	b.Pending = false
}

// Value is the total amount transferred with the bid: amount × quantity for batch bids
func (b *Bid) Value() *big.Int {
	v := orZero(b.Amount)
	if b.Quantity > 1 {
		v.Mul(v, new(big.Int).SetUint64(uint64(b.Quantity)))
	}
	return v
}
