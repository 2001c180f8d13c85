package bidding

import (
	"context"

	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/fhe"
	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// CreateAuction lists a as a new auction sold by the connected account.
// A reserve price is encrypted before it's sent and never goes on chain in
// the clear. a is not modified; its Id and ledger counters are ignored.
func (s *Submitter) CreateAuction(ctx context.Context, a *models.Auction) (*chain.Receipt, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":          "CreateAuction",
		"param_mechanism": a.Mechanism,
	})

	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}

	listing := a.Copy()
	switch listing.Seller {
	case common.Address{}:
		listing.Seller = account
	case account:
	default:
		return nil, stageError(StagePrecondition, models.ValidationError{Field: "seller", Reason: "must be the connected account"})
	}
	if err := listing.Validate(); err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	if listing.EndTime <= s.now().Unix() {
		return nil, stageError(StagePrecondition, models.ValidationError{Field: "endTime", Reason: "already passed"})
	}

	var (
		handle common.Hash
		proof  []byte
	)
	if listing.ReservePrice != nil && listing.ReservePrice.Sign() > 0 {
		units, err := fhe.ToCanonical(listing.ReservePrice)
		if err != nil {
			return nil, stageError(StagePrecondition, err)
		}
		if units == 0 {
			return nil, stageError(StagePrecondition, models.ValidationError{Field: "reservePrice", Reason: "less than 1 gwei cannot be sealed"})
		}

		l.Debugf("Encrypting reserve of %d gwei", units)

		input, err := s.encrypt(ctx, units, account)
		if err != nil {
			l.Errorf("Encryption failed: %+v", err)
			return nil, stageError(StageEncryption, err)
		}
		handle, proof = input.Handle, input.Proof
	}

	call, err := s.contract.CreateAuction(listing, handle, proof)
	if err != nil {
		return nil, stageError(StageSubmission, err)
	}

	receipt, err := s.confirm(ctx, call)
	if err != nil {
		return nil, err
	}

	l.Infof("Auction created in block %d", receipt.BlockNumber)
	return receipt, nil
}
