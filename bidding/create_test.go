package bidding

import (
	"context"
	"math/big"
	"testing"

	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/fhe"
	"github.com/delta/fhe-auction-client/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newListing is a sealed bid auction starting at testStart, not yet on the ledger
func newListing() *models.Auction {
	a := makeAuction(models.SealedBid)
	a.Id = 0
	a.Seller = common.Address{}
	a.Asset = models.Asset{Contract: common.HexToAddress("0x01"), TokenId: big.NewInt(7)}
	return a
}

func unpackCreate(t *testing.T, f *fixture, call *chain.Call) []interface{} {
	args, err := f.submitter.contract.ABI().Methods["createAuction"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	return args
}

func TestCreateAuction_EncryptsReserve(t *testing.T) {
	f := newFixture(t, testStart-3600)
	defer f.ctrl.Finish()
	f.connected(seller)

	a := newListing()
	// 3 gwei and 5 wei, only whole gwei are sealed
	a.ReservePrice = big.NewInt(3000000005)

	handle := common.HexToHash("0xc0ffee")
	f.encryptor.EXPECT().Encrypt(gomock.Any(), uint64(3), contractAddr, seller).
		Return(&fhe.EncryptedInput{Handle: handle, Proof: []byte{7, 7}}, nil).Times(1)
	f.confirms(func(call *chain.Call) {
		assert.Equal(t, "createAuction", call.Method)
		assert.Nil(t, call.Value)

		args := unpackCreate(t, f, call)
		assert.Equal(t, uint8(models.SealedBid), args[0].(uint8))
		assert.Equal(t, int64(100), args[3].(*big.Int).Int64())
		assert.Equal(t, uint64(testEnd+3600), args[9].(uint64))
		assert.Equal(t, [32]byte(handle), args[12].([32]byte))
		assert.Equal(t, []byte{7, 7}, args[13].([]byte))
	})

	receipt, err := f.submitter.CreateAuction(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), receipt.BlockNumber)

	assert.Equal(t, common.Address{}, a.Seller, "input is not modified")
	assert.Empty(t, f.cache.invalidated)
}

func TestCreateAuction_WithoutReserve(t *testing.T) {
	f := newFixture(t, testStart-3600)
	defer f.ctrl.Finish()
	f.connected(seller)

	a := newListing()
	a.Mechanism = models.English
	a.RevealDeadline = 0
	a.Seller = seller

	f.confirms(func(call *chain.Call) {
		args := unpackCreate(t, f, call)
		assert.Equal(t, uint8(models.English), args[0].(uint8))
		assert.Equal(t, [32]byte{}, args[12].([32]byte))
		assert.Empty(t, args[13].([]byte))
	})

	_, err := f.submitter.CreateAuction(context.Background(), a)
	require.NoError(t, err)
}

func TestCreateAuction_Rejected(t *testing.T) {
	t.Run("another seller", func(t *testing.T) {
		f := newFixture(t, testStart-3600)
		defer f.ctrl.Finish()
		f.connected(alice)

		a := newListing()
		a.Seller = seller
		_, err := f.submitter.CreateAuction(context.Background(), a)
		assertValidation(t, err, "seller")
	})

	t.Run("invalid window", func(t *testing.T) {
		f := newFixture(t, testStart-3600)
		defer f.ctrl.Finish()
		f.connected(seller)

		a := newListing()
		a.EndTime = a.StartTime
		_, err := f.submitter.CreateAuction(context.Background(), a)
		assertValidation(t, err, "endTime")
	})

	t.Run("already over", func(t *testing.T) {
		f := newFixture(t, testEnd+1)
		defer f.ctrl.Finish()
		f.connected(seller)

		_, err := f.submitter.CreateAuction(context.Background(), newListing())
		assertValidation(t, err, "endTime")
	})

	t.Run("reserve below one gwei", func(t *testing.T) {
		f := newFixture(t, testStart-3600)
		defer f.ctrl.Finish()
		f.connected(seller)

		a := newListing()
		a.ReservePrice = big.NewInt(999)
		_, err := f.submitter.CreateAuction(context.Background(), a)
		assertValidation(t, err, "reservePrice")
	})

	t.Run("relayer down", func(t *testing.T) {
		f := newFixture(t, testStart-3600)
		defer f.ctrl.Finish()
		f.connected(seller)

		a := newListing()
		a.ReservePrice = big.NewInt(5e9)
		f.encryptor.EXPECT().Encrypt(gomock.Any(), uint64(5), contractAddr, seller).
			Return(nil, errors.Wrap(fhe.ErrProviderUnavailable, "dial tcp")).Times(1)

		_, err := f.submitter.CreateAuction(context.Background(), a)
		assertStage(t, err, StageEncryption)
		assert.True(t, errors.Is(err, fhe.ErrProviderUnavailable))
	})
}
