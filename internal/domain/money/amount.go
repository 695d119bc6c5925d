package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
)

// Amount is a non-negative arbitrary-precision integer denominated in the
// smallest unit of its token. Stored as decimal(65,0) and serialized as a
// JSON string so 256-bit values survive every boundary.
type Amount struct {
	i big.Int
}

func Zero() Amount { return Amount{} }

func FromUint64(v uint64) Amount {
	var a Amount
	a.i.SetUint64(v)
	return a
}

func FromBig(v *big.Int) (Amount, error) {
	if v == nil || v.Sign() < 0 {
		return Amount{}, ErrInvalidAmount
	}
	var a Amount
	a.i.Set(v)
	return a, nil
}

// Parse parses a base-10 unsigned integer string.
func Parse(s string) (Amount, error) {
	var a Amount
	if _, ok := a.i.SetString(s, 10); !ok || a.i.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return a, nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) BigInt() *big.Int { return new(big.Int).Set(&a.i) }
func (a Amount) String() string   { return a.i.String() }
func (a Amount) Sign() int        { return a.i.Sign() }
func (a Amount) IsZero() bool     { return a.i.Sign() == 0 }

func (a Amount) Cmp(b Amount) int { return a.i.Cmp(&b.i) }

func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.i.Add(&a.i, &b.i)
	return out
}

// Sub returns a-b; callers must guarantee a >= b (guarded upstream by Cmp).
func (a Amount) Sub(b Amount) Amount {
	var out Amount
	out.i.Sub(&a.i, &b.i)
	return out
}

// MulDiv returns floor(a * num / den). den must be positive.
func (a Amount) MulDiv(num, den Amount) Amount {
	var out Amount
	out.i.Mul(&a.i, &num.i)
	out.i.Quo(&out.i, &den.i)
	return out
}

// --- database/sql ---

func (a Amount) Value() (driver.Value, error) { return a.i.String(), nil }

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.i.SetInt64(0)
		return nil
	case int64:
		a.i.SetInt64(v)
		return nil
	case []byte:
		return a.setString(string(v))
	case string:
		return a.setString(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidAmount, src)
	}
}

func (a *Amount) setString(s string) error {
	if _, ok := a.i.SetString(s, 10); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return nil
}

// GormDataType keeps migrations on a lossless column type.
func (Amount) GormDataType() string { return "decimal(65,0)" }

// --- JSON ---

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.i.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		a.i.SetInt64(0)
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	a.i.Set(&parsed.i)
	return nil
}
