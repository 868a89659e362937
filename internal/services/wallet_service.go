package services

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	messagePrefix = "\x18ArtExchange Signed Message:\n"
	addressLength = 20
)

// WalletService handles wallet signatures and addresses
type WalletService struct{}

// NewWalletService creates a new WalletService
func NewWalletService() *WalletService {
	return &WalletService{}
}

// AddressFromPubKey derives the account address of a public key: the first
// 20 bytes of the SHA-256 of its compressed encoding, hex encoded with a 0x
// prefix.
func (s *WalletService) AddressFromPubKey(pubKey *btcec.PublicKey) string {
	digest := chainhash.HashB(pubKey.SerializeCompressed())
	return "0x" + hex.EncodeToString(digest[:addressLength])
}

// SignMessage produces a hex encoded compact signature of message
func (s *WalletService) SignMessage(key *btcec.PrivateKey, message string) (string, error) {
	sig := ecdsa.SignCompact(key, messageHash(message), true)
	return hex.EncodeToString(sig), nil
}

// RecoverAddress returns the address whose key produced signature over message
func (s *WalletService) RecoverAddress(message, signature string) (string, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	pubKey, _, err := ecdsa.RecoverCompact(sigBytes, messageHash(message))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return s.AddressFromPubKey(pubKey), nil
}

// VerifySignature checks that signature over message was made by address
func (s *WalletService) VerifySignature(address, message, signature string) (bool, error) {
	recovered, err := s.RecoverAddress(message, signature)
	if err != nil {
		return false, err
	}
	return recovered == strings.ToLower(address), nil
}

// IsAddressValid checks the address format
func (s *WalletService) IsAddressValid(address string) bool {
	return isAddressValid(address)
}

// NormalizeAddress returns the canonical lowercase form of a valid address
func NormalizeAddress(address string) (string, error) {
	address = strings.ToLower(address)
	if !isAddressValid(address) {
		return "", ErrInvalidAddress
	}
	return address, nil
}

// normalizeAddresses rewrites each address in place to its canonical form
func normalizeAddresses(addresses ...*string) error {
	for _, address := range addresses {
		normalized, err := NormalizeAddress(*address)
		if err != nil {
			return err
		}
		*address = normalized
	}
	return nil
}

func isAddressValid(address string) bool {
	if !strings.HasPrefix(address, "0x") || len(address) != 2+2*addressLength {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

func messageHash(message string) []byte {
	return chainhash.DoubleHashB([]byte(messagePrefix + message))
}
