package fhe

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RelayerEncryptor asks a remote relayer to encrypt values.
//
//	POST {BaseURL}/encrypt {"value":"123","contract":"0x..","account":"0x.."}
//	200 {"handle":"0x..32 bytes..","proof":"0x.."}
type RelayerEncryptor struct {
	BaseURL string
	client  *http.Client
}

type encryptRequest struct {
	Value    string `json:"value"`
	Contract string `json:"contract"`
	Account  string `json:"account"`
}

type encryptResponse struct {
	Handle string `json:"handle"`
	Proof  string `json:"proof"`
	Error  string `json:"error"`
}

// NewRelayerEncryptor creates an encryptor talking to the relayer at baseURL
func NewRelayerEncryptor(baseURL string, timeout time.Duration) *RelayerEncryptor {
	return &RelayerEncryptor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewConfiguredEncryptor creates an encryptor for the relayer at config.RelayerURL
func NewConfiguredEncryptor(config *utils.Config) *RelayerEncryptor {
	return NewRelayerEncryptor(config.RelayerURL, config.RelayerTimeout())
}

// Encrypt implements Encryptor. It's never retried here; a failed request
// is reported to the caller as is.
func (r *RelayerEncryptor) Encrypt(ctx context.Context, value uint64, contract, account common.Address) (*EncryptedInput, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":         "RelayerEncryptor.Encrypt",
		"param_contract": contract.Hex(),
		"param_account":  account.Hex(),
	})

	body, err := json.Marshal(encryptRequest{
		Value:    strconv.FormatUint(value, 10),
		Contract: contract.Hex(),
		Account:  account.Hex(),
	})
	if err != nil {
		return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/encrypt", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(ErrProviderUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	l.Debugf("Requesting encryption")
	resp, err := r.client.Do(req)
	if err != nil {
		l.Errorf("Relayer call failed: '%s'", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		l.Errorf("Failed to read relayer response: '%s'", err)
		return nil, errors.Wrap(ErrProviderUnavailable, err.Error())
	}

	var er encryptResponse
	decodeErr := json.Unmarshal(raw, &er)

	switch {
	case resp.StatusCode >= 500:
		l.Errorf("Relayer unavailable. Status %d", resp.StatusCode)
		return nil, errors.Wrapf(ErrProviderUnavailable, "relayer returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		l.Warnf("Relayer rejected the request. Status %d: %s", resp.StatusCode, er.Error)
		return nil, errors.Wrapf(ErrEncryptionFailed, "relayer returned %d: %s", resp.StatusCode, er.Error)
	case decodeErr != nil:
		l.Errorf("Bad relayer response: '%s'", decodeErr)
		return nil, errors.Wrap(ErrEncryptionFailed, decodeErr.Error())
	}

	handle, err := hexutil.Decode(er.Handle)
	if err != nil || len(handle) != common.HashLength {
		l.Errorf("Bad handle '%s'", er.Handle)
		return nil, errors.Wrapf(ErrEncryptionFailed, "bad handle %q", er.Handle)
	}
	proof, err := hexutil.Decode(er.Proof)
	if err != nil {
		l.Errorf("Bad proof: '%s'", err)
		return nil, errors.Wrap(ErrEncryptionFailed, "bad proof")
	}

	l.Debugf("Encrypted")
	return &EncryptedInput{
		Handle: common.BytesToHash(handle),
		Proof:  proof,
	}, nil
}
