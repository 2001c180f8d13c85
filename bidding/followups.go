package bidding

import (
	"context"
	"math/big"

	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/fhe"
	"github.com/delta/fhe-auction-client/models"
	"github.com/sirupsen/logrus"
)

// CancelAuction cancels a as its seller. Only pending auctions and active ones without bids can be cancelled.
func (s *Submitter) CancelAuction(ctx context.Context, a *models.Auction) (*chain.Receipt, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":          "CancelAuction",
		"param_auctionId": a.Id,
	})

	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	if account != a.Seller {
		return nil, stageError(StagePrecondition, models.ValidationError{Field: "account", Reason: "only the seller can cancel"})
	}
	if _, err := models.ApplyEvent(a, models.Event{Kind: models.AuctionCancelled}, s.now()); err != nil {
		l.Debugf("Rejected: %+v", err)
		return nil, stageError(StagePrecondition, err)
	}

	return s.send(ctx, a.Id, s.contract.CancelAuction)
}

// RevealWinner asks the ledger to decrypt and settle a once bidding is over
func (s *Submitter) RevealWinner(ctx context.Context, a *models.Auction) (*chain.Receipt, error) {
	if _, err := s.account(); err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	if err := models.CanSettle(a, s.now()); err != nil {
		return nil, stageError(StagePrecondition, err)
	}

	return s.send(ctx, a.Id, s.contract.RevealWinner)
}

// ClaimItem transfers the item of a settled auction to its winner
func (s *Submitter) ClaimItem(ctx context.Context, a *models.Auction) (*chain.Receipt, error) {
	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	ev := models.Event{Kind: models.ItemClaimed, Claimant: account}
	if _, err := models.ApplyEvent(a, ev, s.now()); err != nil {
		return nil, stageError(StagePrecondition, err)
	}

	return s.send(ctx, a.Id, s.contract.ClaimItem)
}

// ClaimRefund returns the deposit of a losing bidder once a is settled or cancelled
func (s *Submitter) ClaimRefund(ctx context.Context, a *models.Auction) (*chain.Receipt, error) {
	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	ev := models.Event{Kind: models.RefundClaimed, Claimant: account}
	if _, err := models.ApplyEvent(a, ev, s.now()); err != nil {
		return nil, stageError(StagePrecondition, err)
	}

	return s.send(ctx, a.Id, s.contract.ClaimRefund)
}

// RevealBid opens one of the account's sealed bids during the reveal phase.
// secret must be the one returned by Submit for that bid.
func (s *Submitter) RevealBid(ctx context.Context, a *models.Auction, bid *models.Bid, secret SealedSecret) (*chain.Receipt, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":          "RevealBid",
		"param_auctionId": a.Id,
		"param_bid":       bid,
	})

	account, err := s.account()
	if err != nil {
		return nil, stageError(StagePrecondition, err)
	}
	ev := models.Event{Kind: models.BidRevealed, Bid: bid, Claimant: account}
	if _, err := models.ApplyEvent(a, ev, s.now()); err != nil {
		l.Debugf("Rejected: %+v", err)
		return nil, stageError(StagePrecondition, err)
	}
	if !fhe.VerifyCommitment(secret.Commitment, account, secret.Units, secret.Nonce, bid.EncryptedAmount) {
		return nil, stageError(StagePrecondition, models.ValidationError{Field: "commitment", Reason: "doesn't match the sealed bid"})
	}
	bidId, ok := new(big.Int).SetString(bid.Id, 10)
	if bid.Pending || !ok {
		return nil, stageError(StagePrecondition, models.ValidationError{Field: "bid", Reason: "not confirmed on the ledger"})
	}

	return s.send(ctx, a.Id, func(id models.AuctionID) (*chain.Call, error) {
		return s.contract.RevealBid(id, bidId, secret.Units, secret.Nonce)
	})
}

func (s *Submitter) send(ctx context.Context, id models.AuctionID, build func(models.AuctionID) (*chain.Call, error)) (*chain.Receipt, error) {
	call, err := build(id)
	if err != nil {
		return nil, stageError(StageSubmission, err)
	}

	receipt, err := s.execute(ctx, id, call)
	if err != nil {
		return nil, err
	}

	logger.Infof("%s on auction #%d confirmed in block %d", call.Method, id, receipt.BlockNumber)
	return receipt, nil
}
