package domain

import "fmt"

// BaseAllowance is the per-person meal allowance.
const BaseAllowance int64 = 10000

// Amount limits
const (
	MaxSpendAmount   int64 = 1_000_000_000_000
	MaxParticipants        = 1000
)

// ComputeDepositContribution returns participantCount * BaseAllowance - spendAmount.
// The result is negative when the participants overspent their combined allowance.
func ComputeDepositContribution(participantCount int, spendAmount int64) (int64, error) {
	if participantCount < 1 || participantCount > MaxParticipants {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidParticipantCount, participantCount)
	}

	if err := ValidateSpendAmount(spendAmount); err != nil {
		return 0, err
	}

	return int64(participantCount)*BaseAllowance - spendAmount, nil
}

// ComputeWithdrawContribution returns -spendAmount. spendAmount must be positive.
func ComputeWithdrawContribution(spendAmount int64) (int64, error) {
	if err := ValidateSpendAmount(spendAmount); err != nil {
		return 0, err
	}

	if spendAmount == 0 {
		return 0, fmt.Errorf("%w: withdrawal must be positive", ErrInvalidAmount)
	}

	return -spendAmount, nil
}

// ComputeContribution dispatches on kind.
func ComputeContribution(kind EntryKind, participantCount int, spendAmount int64) (int64, error) {
	switch kind {
	case KindDeposit:
		return ComputeDepositContribution(participantCount, spendAmount)
	case KindWithdraw:
		return ComputeWithdrawContribution(spendAmount)
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrMalformedEntry, kind)
	}
}

// ValidateSpendAmount checks a spend amount is within [0, MaxSpendAmount].
func ValidateSpendAmount(spendAmount int64) error {
	if spendAmount < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, spendAmount)
	}

	if spendAmount > MaxSpendAmount {
		return fmt.Errorf("%w: maximum amount is %d", ErrInvalidAmount, MaxSpendAmount)
	}

	return nil
}
