package fhe

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Nonce is the bidder's secret salt for a sealed bid commitment
type Nonce [32]byte

// NewNonce returns a random nonce
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return Nonce{}, err
	}
	return n, nil
}

// Commitment binds a bidder to the plaintext behind a ciphertext handle.
// It's kept by the bidder and opened during the reveal phase.
//
//	keccak256(bidder || uint64be(units) || nonce || handle)
func Commitment(bidder common.Address, units uint64, nonce Nonce, handle common.Hash) common.Hash {
	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], units)

	h := sha3.NewLegacyKeccak256()
	h.Write(bidder.Bytes())
	h.Write(amount[:])
	h.Write(nonce[:])
	h.Write(handle.Bytes())

	var out common.Hash
	h.Sum(out[:0])
	return out
}

// VerifyCommitment checks an opened commitment
func VerifyCommitment(c common.Hash, bidder common.Address, units uint64, nonce Nonce, handle common.Hash) bool {
	return Commitment(bidder, units, nonce, handle) == c
}
