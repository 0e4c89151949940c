// Package signer defines the Signer capability the processor uses to sign
// a built transaction, and a local-private-key implementation of it.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// UnsignedTx is the transaction shape the processor builds and hands to
// the signer.
type UnsignedTx struct {
	To       string
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
	Nonce    int64
	ChainID  *big.Int
}

// Signer is the external collaborator holding the signing key. Address is
// opaque to the rest of the pipeline beyond its hex string form.
type Signer interface {
	Address() string
	Sign(tx *UnsignedTx) (string, error)
}

// LocalSigner signs with an in-process ECDSA private key, matching the
// teacher's createAuthenticator construction but narrowed to the
// address()/sign() surface this worker needs — no bind.TransactOpts, since
// broadcast goes through the Chain capability directly rather than a
// generated contract binding.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner parses a hex-encoded private key given without a 0x
// prefix; a prefixed key is rejected as malformed hex.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("signer: failed to parse private key: %w", err)
	}
	return &LocalSigner{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *LocalSigner) Address() string {
	return s.address.Hex()
}

// Sign builds an EIP-155 transaction from the unsigned shape, signs it, and
// returns the RLP-encoded signed transaction as a hex string ready for
// Chain.SendRaw.
func (s *LocalSigner) Sign(tx *UnsignedTx) (string, error) {
	to := common.HexToAddress(tx.To)
	rawTx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(tx.Nonce),
		To:       &to,
		Value:    tx.Value,
		Gas:      tx.GasLimit,
		GasPrice: tx.GasPrice,
		Data:     tx.Data,
	})

	signer := types.NewEIP155Signer(tx.ChainID)
	signedTx, err := types.SignTx(rawTx, signer, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signer: failed to sign transaction: %w", err)
	}

	encoded, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("signer: failed to encode signed transaction: %w", err)
	}

	return "0x" + common.Bytes2Hex(encoded), nil
}
