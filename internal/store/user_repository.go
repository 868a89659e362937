package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/artexchange/internal/models"
)

// AccountRepository handles currency balances and allowances of addresses
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// GetBalance retrieves the balance of an address, zero when unknown
func (r *AccountRepository) GetBalance(ctx context.Context, q sqlx.ExtContext, address string) (models.Amount, error) {
	var amount models.Amount
	err := sqlx.GetContext(ctx, q, &amount, `SELECT amount FROM balances WHERE address = $1`, address)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return amount, nil
}

// SetBalance stores the balance of an address
func (r *AccountRepository) SetBalance(ctx context.Context, q sqlx.ExtContext, address string, amount models.Amount) error {
	query := `INSERT INTO balances (address, amount) VALUES ($1, $2)
			  ON CONFLICT (address) DO UPDATE SET amount = EXCLUDED.amount`
	_, err := q.ExecContext(ctx, query, address, amount)
	return err
}

// GetAllowance retrieves how much spender may move on behalf of owner
func (r *AccountRepository) GetAllowance(ctx context.Context, q sqlx.ExtContext, owner, spender string) (models.Amount, error) {
	var amount models.Amount
	query := `SELECT amount FROM allowances WHERE owner = $1 AND spender = $2`
	err := sqlx.GetContext(ctx, q, &amount, query, owner, spender)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return amount, nil
}

// SetAllowance stores the allowance of spender over owner's funds
func (r *AccountRepository) SetAllowance(ctx context.Context, q sqlx.ExtContext, owner, spender string, amount models.Amount) error {
	query := `INSERT INTO allowances (owner, spender, amount) VALUES ($1, $2, $3)
			  ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`
	_, err := q.ExecContext(ctx, query, owner, spender, amount)
	return err
}
