package domain

import (
	"github.com/fd1az/rangebet/internal/apperror"
)

// Sentinels for errors.Is matching. AppError.Is compares codes, so every error returned
// by this package matches the sentinel of its kind.
var (
	ErrMathOverflow             = apperror.New(apperror.CodeMathOverflow)
	ErrInvalidBinState          = apperror.New(apperror.CodeInvalidBinState)
	ErrCannotSellMoreThanBin    = apperror.New(apperror.CodeCannotSellMoreThanBin)
	ErrCannotSellMoreThanSupply = apperror.New(apperror.CodeCannotSellMoreThanSupply)
	ErrCanOnlySellEntireSupply  = apperror.New(apperror.CodeCanOnlySellEntireSupply)
	ErrSellCalculationUnderflow = apperror.New(apperror.CodeSellCalculationUnderflow)
)

func invalidBinState(q, t uint64) error {
	return apperror.New(apperror.CodeInvalidBinState, apperror.WithContextf("q=%d t=%d", q, t))
}

func cannotSellMoreThanBin(x, q uint64) error {
	return apperror.New(apperror.CodeCannotSellMoreThanBin, apperror.WithContextf("x=%d q=%d", x, q))
}

func overflow(op string) error {
	return apperror.New(apperror.CodeMathOverflow, apperror.WithContext(op))
}
