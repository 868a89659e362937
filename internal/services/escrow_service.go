package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/satonic/artexchange/internal/config"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/store"
	"go.uber.org/zap"
)

// EscrowService moves assets and currency on behalf of the market. The
// market never grants itself rights: owners approve it per asset and payers
// set an allowance for its escrow address.
type EscrowService struct {
	ledger   store.Ledger
	registry *RegistryService
	address  string
	operator string
	log      *zap.Logger
}

// NewEscrowService creates a new EscrowService
func NewEscrowService(ledger store.Ledger, registry *RegistryService, cfg config.MarketConfig, log *zap.Logger) *EscrowService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EscrowService{
		ledger:   ledger,
		registry: registry,
		address:  strings.ToLower(cfg.EscrowAddress),
		operator: strings.ToLower(cfg.Operator),
		log:      log,
	}
}

// Address returns the escrow account holding active bids
func (s *EscrowService) Address() string {
	return s.address
}

// FeeRecipient returns the account credited with the owner cut
func (s *EscrowService) FeeRecipient() string {
	if s.operator == "" {
		return s.address
	}
	return s.operator
}

// HoldApprovalFor reports whether owner holds the asset and has approved spender
func (s *EscrowService) HoldApprovalFor(ctx context.Context, owner, spender string, assetID uint64) (bool, error) {
	if err := normalizeAddresses(&owner, &spender); err != nil {
		return false, err
	}
	asset, err := s.registry.GetAsset(ctx, assetID)
	if err != nil {
		return false, err
	}
	return asset.Owner == owner && asset.Approved == spender, nil
}

// Deposit credits funds to an account. Only the operator may mint funds.
func (s *EscrowService) Deposit(ctx context.Context, caller, to string, amount models.Amount) error {
	if s.operator == "" || strings.ToLower(caller) != s.operator {
		return ErrUnauthorized
	}
	if err := normalizeAddresses(&to); err != nil {
		return err
	}

	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		balance, err := tx.Balance(ctx, to)
		if err != nil {
			return fmt.Errorf("failed to load balance: %w", err)
		}
		balance, err = balance.Add(amount)
		if err != nil {
			return err
		}
		return tx.SetBalance(ctx, to, balance)
	})
	if err != nil {
		return err
	}

	s.log.Info("deposit", zap.String("to", to), zap.Stringer("amount", amount))
	return nil
}

// Transfer moves funds between two accounts
func (s *EscrowService) Transfer(ctx context.Context, from, to string, amount models.Amount) error {
	if err := normalizeAddresses(&from, &to); err != nil {
		return err
	}
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		return s.move(ctx, tx, from, to, amount)
	})
	observe("transfer_funds", err)
	return err
}

// Approve sets how much spender may pull from owner's funds
func (s *EscrowService) Approve(ctx context.Context, owner, spender string, amount models.Amount) error {
	if err := normalizeAddresses(&owner, &spender); err != nil {
		return err
	}
	return s.ledger.Update(ctx, func(tx store.Tx) error {
		return tx.SetAllowance(ctx, owner, spender, amount)
	})
}

// BalanceOf returns the funds held by an account
func (s *EscrowService) BalanceOf(ctx context.Context, address string) (models.Amount, error) {
	if err := normalizeAddresses(&address); err != nil {
		return 0, err
	}
	var balance models.Amount
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		balance, err = tx.Balance(ctx, address)
		return err
	})
	return balance, err
}

// Allowance returns how much spender may pull from owner's funds
func (s *EscrowService) Allowance(ctx context.Context, owner, spender string) (models.Amount, error) {
	if err := normalizeAddresses(&owner, &spender); err != nil {
		return 0, err
	}
	var allowance models.Amount
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		allowance, err = tx.Allowance(ctx, owner, spender)
		return err
	})
	return allowance, err
}

// transferAsset moves an asset the market was approved for
func (s *EscrowService) transferAsset(ctx context.Context, tx store.Tx, assetID uint64, from, to string) error {
	asset, err := s.registry.loadAsset(ctx, tx, assetID)
	if err != nil {
		return err
	}
	if asset.Owner != from {
		return ErrNotOwner
	}
	if asset.Approved != s.address {
		return ErrNotApproved
	}
	return s.registry.transfer(ctx, tx, asset, to)
}

// pull moves funds from payer to payee against payer's allowance for the market
func (s *EscrowService) pull(ctx context.Context, tx store.Tx, payer, payee string, amount models.Amount) error {
	if amount == 0 {
		return nil
	}

	allowance, err := tx.Allowance(ctx, payer, s.address)
	if err != nil {
		return fmt.Errorf("failed to load allowance: %w", err)
	}
	if allowance < amount {
		return ErrInsufficientAllowance
	}
	if err := tx.SetAllowance(ctx, payer, s.address, allowance-amount); err != nil {
		return fmt.Errorf("failed to update allowance: %w", err)
	}

	return s.move(ctx, tx, payer, payee, amount)
}

// refund pays funds held in escrow out to payee
func (s *EscrowService) refund(ctx context.Context, tx store.Tx, payee string, amount models.Amount) error {
	return s.move(ctx, tx, s.address, payee, amount)
}

func (s *EscrowService) move(ctx context.Context, tx store.Tx, from, to string, amount models.Amount) error {
	if amount == 0 || from == to {
		return nil
	}

	fromBalance, err := tx.Balance(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}
	toBalance, err := tx.Balance(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}
	toBalance, err = toBalance.Add(amount)
	if err != nil {
		return err
	}

	if err := tx.SetBalance(ctx, from, fromBalance-amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := tx.SetBalance(ctx, to, toBalance); err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}
