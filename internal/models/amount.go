package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// BasisPoints is the denominator for owner cut fractions (10000 = 100%)
const BasisPoints = 10000

// ErrAmountOverflow is returned when an amount does not fit the base unit range
var ErrAmountOverflow = errors.New("amount overflow")

// Amount is a quantity of the base currency in its smallest unit
type Amount uint64

// ParseUnits parses a decimal string expressed in whole units (e.g. "0.05")
// into base units using the given number of decimals
func ParseUnits(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}

	d = d.Shift(decimals)
	if !d.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimals", s, decimals)
	}

	n := d.BigInt()
	if !n.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return Amount(n.Uint64()), nil
}

// MustParseUnits is like ParseUnits but panics on error
func MustParseUnits(s string, decimals int32) Amount {
	a, err := ParseUnits(s, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

// Format renders the amount in whole units with the given number of decimals
func (a Amount) Format(decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -decimals).String()
}

// String returns the base unit representation
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Add returns a+b, failing on overflow
func (a Amount) Add(b Amount) (Amount, error) {
	if uint64(a) > math.MaxUint64-uint64(b) {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Cut returns floor(a * bps / BasisPoints) without intermediate overflow
func (a Amount) Cut(bps uint16) Amount {
	q, r := uint64(a)/BasisPoints, uint64(a)%BasisPoints
	return Amount(q*uint64(bps) + r*uint64(bps)/BasisPoints)
}

// Value implements driver.Valuer. Amounts are stored as NUMERIC so the full
// uint64 range survives the round trip.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*a = Amount(v)
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}

func (a *Amount) parse(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = Amount(n)
	return nil
}

// MarshalJSON encodes the amount as a decimal string of base units
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number of base units
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid amount %s", data)
		}
		*a = Amount(n)
		return nil
	}
	return a.parse(s)
}
