package chain

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Backend is the part of an Ethereum client the ledger needs.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// EthLedger is a Ledger and AuctionReader backed by an Ethereum node
type EthLedger struct {
	backend      Backend
	wallet       Wallet
	contract     *Contract
	chainID      *big.Int
	pollInterval time.Duration
}

// NewEthLedger creates a ledger. Transactions are signed and sent through wallet.
func NewEthLedger(backend Backend, wallet Wallet, contract *Contract, chainID *big.Int, pollInterval time.Duration) *EthLedger {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &EthLedger{
		backend:      backend,
		wallet:       wallet,
		contract:     contract,
		chainID:      chainID,
		pollInterval: pollInterval,
	}
}

// Contract returns the contract the ledger reads from
func (l *EthLedger) Contract() *Contract {
	return l.contract
}

// Submit signs and sends call through the wallet. It returns as soon as
// the transaction is accepted by the node.
func (l *EthLedger) Submit(ctx context.Context, call *Call) (TxRef, error) {
	var log = logger.WithFields(logrus.Fields{
		"method":     "Submit",
		"param_call": call.String(),
	})

	log.Debugf("Sending")
	ref, err := l.wallet.SignAndSend(ctx, call)
	if err != nil {
		log.Errorf("Failed to send: '%s'", err)
		return TxRef{}, err
	}

	log.Infof("Sent. TxRef %s", ref.Hex())
	return ref, nil
}

// AwaitConfirmation polls for the receipt of ref until it's mined, timeout
// passes or ctx is cancelled. A cancelled ctx returns ctx.Err(); a timeout
// returns ErrConfirmationTimeout. Failed transactions come back as *RevertedError.
func (l *EthLedger) AwaitConfirmation(ctx context.Context, ref TxRef, timeout time.Duration) (*Receipt, error) {
	var log = logger.WithFields(logrus.Fields{
		"method":        "AwaitConfirmation",
		"param_ref":     ref.Hex(),
		"param_timeout": timeout,
	})

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := l.backend.TransactionReceipt(waitCtx, ref)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				reason := l.revertReason(ctx, ref, receipt)
				log.Warnf("Reverted in block %d: '%s'", receipt.BlockNumber, reason)
				return nil, &RevertedError{TxRef: ref, Reason: reason}
			}
			log.Infof("Confirmed in block %d", receipt.BlockNumber)
			return &Receipt{
				TxRef:       ref,
				BlockNumber: receipt.BlockNumber.Uint64(),
				GasUsed:     receipt.GasUsed,
			}, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil:
			log.Warnf("Receipt lookup failed, retrying: '%s'", err)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				log.Debugf("Abandoned")
				return nil, ctx.Err()
			}
			log.Warnf("Not mined after %s", timeout)
			return nil, errors.Wrapf(ErrConfirmationTimeout, "%s after %s", ref.Hex(), timeout)
		case <-ticker.C:
		}
	}
}

// revertReason replays a failed transaction as a call at its block to get the revert message
func (l *EthLedger) revertReason(ctx context.Context, ref TxRef, receipt *types.Receipt) string {
	tx, _, err := l.backend.TransactionByHash(ctx, ref)
	if err != nil {
		return ""
	}
	from, err := types.Sender(types.LatestSignerForChainID(l.chainID), tx)
	if err != nil {
		return ""
	}

	msg := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	if _, err := l.backend.CallContract(ctx, msg, receipt.BlockNumber); err != nil {
		return err.Error()
	}
	return ""
}
