package models

import (
	"time"
)

// AuthToken represents the authentication token response
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Address   string    `json:"address"`
}

// ChallengeRequest asks for a message to sign for wallet login
type ChallengeRequest struct {
	Address string `json:"address"`
}

// ChallengeResponse carries the message a wallet has to sign
type ChallengeResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WalletAuthRequest represents a request to authenticate with a wallet
type WalletAuthRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// DepositRequest credits currency to an account
type DepositRequest struct {
	To     string `json:"to"`
	Amount Amount `json:"amount"`
}

// TransferFundsRequest moves currency from the caller to another account
type TransferFundsRequest struct {
	To     string `json:"to"`
	Amount Amount `json:"amount"`
}

// ApproveFundsRequest sets the allowance of a spender over the caller's funds
type ApproveFundsRequest struct {
	Spender string `json:"spender"`
	Amount  Amount `json:"amount"`
}

// BalanceResponse reports the funds of an account
type BalanceResponse struct {
	Address   string `json:"address"`
	Balance   Amount `json:"balance"`
	Allowance Amount `json:"allowance"` // granted to the market escrow
}
