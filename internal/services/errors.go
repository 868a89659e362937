package services

import "errors"

// Every error below aborts the operation that returned it; no partial
// state change is ever committed.
var (
	ErrDuplicateAsset = errors.New("token with hash already created")
	ErrUnknownAsset   = errors.New("unknown asset")
	ErrInvalidAsset   = errors.New("owner and content hash are required")

	ErrNotOwner     = errors.New("caller is not the asset owner")
	ErrUnauthorized = errors.New("caller is not authorized")
	ErrNotApproved  = errors.New("market is not approved to transfer the asset")

	ErrInvalidRange = errors.New("minimum price exceeds maximum price")

	ErrNotForSale        = errors.New("nft not for sale")
	ErrBidTooLow         = errors.New("bid cannot be less than minimum asking price")
	ErrBidTooHigh        = errors.New("bid cannot be more than maximum price")
	ErrHigherBidRequired = errors.New("higher bid required")
	ErrAmountMismatch    = errors.New("amount must equal the buy now price")
	ErrNoActiveBid       = errors.New("no active bid")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidSignature      = errors.New("invalid signature")
)

var domainErrors = []error{
	ErrDuplicateAsset, ErrUnknownAsset, ErrInvalidAsset,
	ErrNotOwner, ErrUnauthorized, ErrNotApproved,
	ErrInvalidRange,
	ErrNotForSale, ErrBidTooLow, ErrBidTooHigh, ErrHigherBidRequired, ErrAmountMismatch, ErrNoActiveBid,
	ErrInsufficientBalance, ErrInsufficientAllowance, ErrInvalidAddress, ErrInvalidSignature,
}

// IsRejection reports whether err is a rejected operation rather than an
// infrastructure failure
func IsRejection(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
