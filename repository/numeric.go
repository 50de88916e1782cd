package repository

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

var bigTen = big.NewInt(10)

// toNumeric encodes an amount for a NUMERIC(20, 0) column
func toNumeric(v uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Valid: true}
}

// fromNumeric decodes a NUMERIC(20, 0) column back into an amount
func fromNumeric(n pgtype.Numeric) (uint64, error) {
	if !n.Valid {
		return 0, errors.New("amount is NULL")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return 0, errors.New("amount is not a finite number")
	}

	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		scale := new(big.Int).Exp(bigTen, big.NewInt(int64(n.Exp)), nil)
		v.Mul(v, scale)
	case n.Exp < 0:
		scale := new(big.Int).Exp(bigTen, big.NewInt(int64(-n.Exp)), nil)
		var rem big.Int
		v.QuoRem(v, scale, &rem)
		if rem.Sign() != 0 {
			return 0, fmt.Errorf("amount %s has a fractional part", n.Int.String())
		}
	}

	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %s does not fit in 64 bits", v.String())
	}
	return v.Uint64(), nil
}

// scanAmounts decodes a list of numeric columns into their destinations
func scanAmounts(pairs ...amountPair) error {
	for _, p := range pairs {
		v, err := fromNumeric(p.src)
		if err != nil {
			return fmt.Errorf("%s: %w", p.column, err)
		}
		*p.dst = v
	}
	return nil
}

type amountPair struct {
	column string
	src    pgtype.Numeric
	dst    *uint64
}
