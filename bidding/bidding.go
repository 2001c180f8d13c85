// Package bidding runs the bid submission pipeline and the seller and
// bidder follow-up transactions of an auction.
//
// Every operation runs the same strictly ordered stages: precondition checks,
// encryption (sealed bids only), submission of exactly one ledger call, the
// wait for confirmation and finally invalidation of the cached auction. A
// failure stops the pipeline where it happened. Nothing is ever retried.
package bidding

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/fhe"
	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "bidding",
})

// Init configures the bidding package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "bidding",
	})
}

// Invalidator drops cached auction state once a transaction is confirmed
type Invalidator interface {
	Invalidate(id models.AuctionID)
}

// BidRequest is what the user asks to bid. Amount is in wei, per unit for batch auctions.
type BidRequest struct {
	Amount   *big.Int
	Quantity uint32
}

// SealedSecret is what the bidder keeps to reveal a sealed bid later
type SealedSecret struct {
	Units      uint64
	Nonce      fhe.Nonce
	Commitment common.Hash
}

// Submission is the outcome of a confirmed bid. The secret is zero for plaintext bids.
type Submission struct {
	Bid     *models.Bid
	Receipt *chain.Receipt
	SealedSecret
}

// Submitter runs the pipeline against one auction contract
type Submitter struct {
	wallet    chain.Wallet
	ledger    chain.Ledger
	encryptor fhe.Encryptor
	contract  *chain.Contract
	cache     Invalidator
	timeout   time.Duration

	now func() time.Time
}

// NewSubmitter creates a Submitter. The encryptor is only used for sealed bids.
func NewSubmitter(wallet chain.Wallet, ledger chain.Ledger, encryptor fhe.Encryptor, contract *chain.Contract, cache Invalidator, config *utils.Config) *Submitter {
	return &Submitter{
		wallet:    wallet,
		ledger:    ledger,
		encryptor: encryptor,
		contract:  contract,
		cache:     cache,
		timeout:   config.ConfirmationTimeout(),
		now:       time.Now,
	}
}

// NewConfiguredSubmitter creates a Submitter for the auction contract and
// encryption relayer named in config
func NewConfiguredSubmitter(wallet chain.Wallet, ledger chain.Ledger, cache Invalidator, config *utils.Config) (*Submitter, error) {
	if !common.IsHexAddress(config.AuctionContract) {
		return nil, errors.Errorf("invalid auction contract address %q", config.AuctionContract)
	}
	contract, err := chain.NewContract(common.HexToAddress(config.AuctionContract))
	if err != nil {
		return nil, err
	}
	return NewSubmitter(wallet, ledger, fhe.NewConfiguredEncryptor(config), contract, cache, config), nil
}

// SubmitBid places a bid on a and waits for it to be confirmed.
// The returned bid carries the transaction reference and is no longer pending.
func (s *Submitter) SubmitBid(ctx context.Context, a *models.Auction, req BidRequest) (*models.Bid, error) {
	sub, err := s.Submit(ctx, a, req)
	if err != nil {
		return nil, err
	}
	return sub.Bid, nil
}

// Submit is SubmitBid, also returning the receipt and, for sealed bids, the commitment material
func (s *Submitter) Submit(ctx context.Context, a *models.Auction, req BidRequest) (*Submission, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":          "Submit",
		"param_auctionId": a.Id,
		"param_amount":    req.Amount,
		"param_quantity":  req.Quantity,
	})

	now := s.now()

	l.Debugf("Checking preconditions")

	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	quantity, err := checkBid(a, req, now)
	if err != nil {
		l.Debugf("Rejected: %+v", err)
		return nil, stageError(StagePrecondition, err)
	}

	bid := models.NewPendingBid(a.Id, account, now.Unix())
	bid.Quantity = quantity
	sub := &Submission{Bid: bid}

	var call *chain.Call
	if a.Mechanism == models.SealedBid {
		units, err := fhe.ToCanonical(req.Amount)
		if err != nil {
			return nil, stageError(StagePrecondition, err)
		}
		if units == 0 {
			return nil, stageError(StagePrecondition, models.ValidationError{Field: "amount", Reason: "less than 1 gwei cannot be sealed"})
		}

		l.Debugf("Encrypting %d gwei", units)

		input, err := s.encrypt(ctx, units, account)
		if err != nil {
			l.Errorf("Encryption failed: %+v", err)
			return nil, stageError(StageEncryption, err)
		}

		nonce, err := fhe.NewNonce()
		if err != nil {
			return nil, stageError(StageEncryption, errors.Wrap(fhe.ErrEncryptionFailed, err.Error()))
		}

		bid.EncryptedAmount = input.Handle
		sub.Units = units
		sub.Nonce = nonce
		sub.Commitment = fhe.Commitment(account, units, nonce, input.Handle)

		call, err = s.contract.PlaceSealedBid(a.Id, input.Handle, input.Proof, new(big.Int).Set(req.Amount))
		if err != nil {
			return nil, stageError(StageSubmission, err)
		}
	} else {
		bid.Amount = new(big.Int).Set(req.Amount)
		bid.IsRevealed = true

		call, err = s.contract.PlaceBid(a.Id, bid.Amount, quantity, bid.Value())
		if err != nil {
			return nil, stageError(StageSubmission, err)
		}
	}

	receipt, err := s.execute(ctx, a.Id, call)
	if err != nil {
		return nil, err
	}

	bid.Confirm(receipt.TxRef)
	sub.Receipt = receipt

	l.Infof("Bid %s confirmed in block %d", bid.Id, receipt.BlockNumber)

	return sub, nil
}

// checkBid validates a bid request at now and returns the quantity to bid for
func checkBid(a *models.Auction, req BidRequest, now time.Time) (uint32, error) {
	if status := models.DeriveStatus(a, now); status != models.Active {
		return 0, models.ValidationError{Field: "auction", Reason: "not accepting bids while " + status.String()}
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return 0, models.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	minimum, err := models.MinimumBid(a, now)
	if err != nil {
		return 0, err
	}
	if req.Amount.Cmp(minimum) < 0 {
		return 0, models.ValidationError{Field: "amount", Reason: fmt.Sprintf("below the minimum bid of %s ETH", utils.FormatEther(minimum))}
	}

	if a.Mechanism != models.Batch {
		if req.Quantity > 1 {
			return 0, models.ValidationError{Field: "quantity", Reason: "only batch auctions sell more than one unit"}
		}
		return 1, nil
	}

	if req.Quantity == 0 {
		return 0, models.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if remaining := a.RemainingSupply(); req.Quantity > remaining {
		return 0, models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("exceeds remaining supply of %d", remaining)}
	}

	// the per-unit floor alone doesn't cover the deposit when MinBidPerUnit is set
	if a.MinDeposit != nil {
		total := new(big.Int).Mul(req.Amount, new(big.Int).SetUint64(uint64(req.Quantity)))
		if total.Cmp(a.MinDeposit) < 0 {
			return 0, models.ValidationError{Field: "amount", Reason: fmt.Sprintf("total of %s ETH is below the minimum deposit of %s ETH", utils.FormatEther(total), utils.FormatEther(a.MinDeposit))}
		}
	}
	return req.Quantity, nil
}

func (s *Submitter) account() (common.Address, error) {
	account, ok := s.wallet.CurrentAccount()
	if !ok {
		return common.Address{}, models.ValidationError{Field: "wallet", Reason: "not connected"}
	}
	return account, nil
}

// encrypt calls the encryptor once. Errors that aren't already classified count as a rejected input.
func (s *Submitter) encrypt(ctx context.Context, units uint64, account common.Address) (*fhe.EncryptedInput, error) {
	input, err := s.encryptor.Encrypt(ctx, units, s.contract.Address, account)
	switch {
	case err == nil:
		return input, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, fhe.ErrProviderUnavailable), errors.Is(err, fhe.ErrEncryptionFailed):
		return nil, err
	default:
		return nil, errors.Wrap(fhe.ErrEncryptionFailed, err.Error())
	}
}

// execute submits call, waits for it and then invalidates the cached auction
func (s *Submitter) execute(ctx context.Context, id models.AuctionID, call *chain.Call) (*chain.Receipt, error) {
	receipt, err := s.confirm(ctx, call)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)
	return receipt, nil
}

// confirm submits call once and waits for it to be mined
func (s *Submitter) confirm(ctx context.Context, call *chain.Call) (*chain.Receipt, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":     "confirm",
		"param_call": call.String(),
	})

	ref, err := s.ledger.Submit(ctx, call)
	if err != nil {
		l.Errorf("Submission failed: %+v", err)
		return nil, stageError(StageSubmission, err)
	}

	l.Debugf("Submitted %s. Waiting up to %s", ref.Hex(), s.timeout)

	submitted := time.Now()
	receipt, err := s.ledger.AwaitConfirmation(ctx, ref, s.timeout)
	if err != nil {
		l.Errorf("Confirmation of %s failed: %+v", ref.Hex(), err)
		return nil, stageError(StageConfirmation, err)
	}
	confirmationSeconds.Observe(time.Since(submitted).Seconds())
	pipelineConfirmed.WithLabelValues(call.Method).Inc()

	return receipt, nil
}
