package services

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/satonic/artexchange/internal/config"
	"github.com/satonic/artexchange/internal/models"
	"github.com/stretchr/testify/require"
)

func newAuthService() *AuthService {
	cfg := config.Default().Auth
	cfg.JWTSecret = "test-secret"
	return NewAuthService(NewWalletService(), cfg)
}

func TestWalletSignatureRoundTrip(t *testing.T) {
	require := require.New(t)
	wallets := NewWalletService()

	key, err := btcec.NewPrivateKey()
	require.NoError(err)
	address := wallets.AddressFromPubKey(key.PubKey())
	require.True(wallets.IsAddressValid(address))

	signature, err := wallets.SignMessage(key, "hello")
	require.NoError(err)

	recovered, err := wallets.RecoverAddress("hello", signature)
	require.NoError(err)
	require.Equal(address, recovered)

	valid, err := wallets.VerifySignature(address, "hello", "0x"+signature)
	require.NoError(err)
	require.True(valid)

	valid, err = wallets.VerifySignature(address, "goodbye", signature)
	require.NoError(err)
	require.False(valid)

	_, err = wallets.RecoverAddress("hello", "00")
	require.ErrorIs(err, ErrInvalidSignature)
}

func TestIsAddressValid(t *testing.T) {
	wallets := NewWalletService()

	require.True(t, wallets.IsAddressValid(alice))
	require.False(t, wallets.IsAddressValid(""))
	require.False(t, wallets.IsAddressValid("0x1234"))
	require.False(t, wallets.IsAddressValid("00000000000000000000000000000000000a11ce00"))
	require.False(t, wallets.IsAddressValid("0x0000000000000000000000000000000000000xyz"))
}

func TestWalletLogin(t *testing.T) {
	require := require.New(t)
	auth := newAuthService()

	key, err := btcec.NewPrivateKey()
	require.NoError(err)
	address := auth.walletService.AddressFromPubKey(key.PubKey())

	challenge, err := auth.Challenge(models.ChallengeRequest{Address: address})
	require.NoError(err)
	require.Contains(challenge.Message, address)

	signature, err := auth.walletService.SignMessage(key, challenge.Message)
	require.NoError(err)

	token, err := auth.AuthenticateWithWallet(models.WalletAuthRequest{Message: challenge.Message, Signature: signature})
	require.NoError(err)
	require.Equal(address, token.Address)

	caller, err := auth.ValidateToken(token.Token)
	require.NoError(err)
	require.Equal(address, caller)
}

func TestWalletLoginRejections(t *testing.T) {
	require := require.New(t)
	auth := newAuthService()

	key, err := btcec.NewPrivateKey()
	require.NoError(err)
	address := auth.walletService.AddressFromPubKey(key.PubKey())

	_, err = auth.Challenge(models.ChallengeRequest{Address: "nobody"})
	require.ErrorIs(err, ErrInvalidAddress)

	_, err = auth.AuthenticateWithWallet(models.WalletAuthRequest{Message: "hello", Signature: "00"})
	require.Error(err)

	// Someone else's challenge
	challenge, err := auth.Challenge(models.ChallengeRequest{Address: alice})
	require.NoError(err)
	signature, err := auth.walletService.SignMessage(key, challenge.Message)
	require.NoError(err)
	_, err = auth.AuthenticateWithWallet(models.WalletAuthRequest{Message: challenge.Message, Signature: signature})
	require.ErrorIs(err, ErrInvalidSignature)

	// Expired challenge
	challenge, err = auth.Challenge(models.ChallengeRequest{Address: address})
	require.NoError(err)
	signature, err = auth.walletService.SignMessage(key, challenge.Message)
	require.NoError(err)
	auth.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = auth.AuthenticateWithWallet(models.WalletAuthRequest{Message: challenge.Message, Signature: signature})
	require.EqualError(err, "challenge expired")
}

func TestValidateTokenRejections(t *testing.T) {
	require := require.New(t)
	auth := newAuthService()

	token, _, err := auth.generateToken(alice)
	require.NoError(err)

	other := newAuthService()
	other.cfg.JWTSecret = "another-secret"
	_, err = other.ValidateToken(token)
	require.Error(err)

	auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = auth.ValidateToken(token)
	require.Error(err)

	_, err = auth.ValidateToken("not-a-token")
	require.Error(err)
}
