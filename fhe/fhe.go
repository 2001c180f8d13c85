// Package fhe is the boundary to the remote encryption service used for
// sealed bids. The core never encrypts anything itself: amounts are scaled
// to the service's fixed-point width and handed to an Encryptor.
package fhe

import (
	"context"

	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "fhe",
})

var (
	// ErrProviderUnavailable is returned when the encryption service can't be reached
	ErrProviderUnavailable = errors.New("encryption provider unavailable")
	// ErrEncryptionFailed is returned when the service rejects or fails an encryption request
	ErrEncryptionFailed = errors.New("encryption failed")
)

// EncryptedInput is a ciphertext handle plus the proof the contract needs to accept it
type EncryptedInput struct {
	Handle common.Hash
	Proof  []byte
}

// Encryptor encrypts a fixed-point value for a given contract and account
type Encryptor interface {
	Encrypt(ctx context.Context, value uint64, contract, account common.Address) (*EncryptedInput, error)
}

// Init configures the fhe package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "fhe",
	})
}
