package bridge

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
)

// USDCDecimals is the token's on-chain precision. Amounts with more
// fractional digits are rejected rather than truncated.
const USDCDecimals = 6

var (
	ErrMissingChain          = errors.New("source and destination chains are required")
	ErrSameChain             = errors.New("source and destination chains must differ")
	ErrInvalidAmount         = errors.New("amount must be a positive decimal")
	ErrTooManyDecimals       = errors.New("amount has too many decimal places")
	ErrUnsupportedRoute      = errors.New("route is not supported")
	ErrInvalidTransferMethod = errors.New("transfer method must be standard or fast")
)

// ValidateTransferParams checks a transfer request before any I/O.
func ValidateTransferParams(params TransferParams) error {
	if params.SourceChain == "" || params.DestinationChain == "" {
		return apperrors.BadRequestError(ErrMissingChain, ErrMissingChain.Error())
	}
	if params.SourceChain == params.DestinationChain {
		return apperrors.BadRequestError(ErrSameChain, ErrSameChain.Error())
	}

	switch params.TransferMethod {
	case TransferStandard, TransferFast:
	default:
		return apperrors.BadRequestError(ErrInvalidTransferMethod, ErrInvalidTransferMethod.Error())
	}

	amount, err := decimal.NewFromString(params.Amount)
	if err != nil || !amount.IsPositive() {
		return apperrors.BadRequestError(ErrInvalidAmount, ErrInvalidAmount.Error())
	}
	if amount.Exponent() < -USDCDecimals {
		return apperrors.BadRequestError(ErrTooManyDecimals,
			fmt.Sprintf("amount supports at most %d decimal places", USDCDecimals))
	}
	return nil
}
