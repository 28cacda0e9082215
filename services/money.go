package services

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts carry at most two fractional digits; one minor unit is 0.01.
const minorUnitExp = 2

// maxAmount is the first value the decimal(14,2) columns cannot hold.
var maxAmount = decimal.New(1, 12)

// ParseAmount parses a positive decimal amount with at most two
// fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if err := validateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: must be less than %s", ErrInvalidAmount, maxAmount)
	}
	if !d.Equal(d.Truncate(minorUnitExp)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, minorUnitExp)
	}
	return nil
}

// Share is one participant's part of an entry.
type Share struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
}

// SplitEven divides amount among participants in minor units. The
// remainder goes one unit at a time to the first participants in
// ascending id order, so shares always sum to amount exactly.
func SplitEven(amount decimal.Decimal, participants []uuid.UUID) ([]Share, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidAmount)
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	ids := sortedIDs(participants)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidInput, ids[i])
		}
	}

	units := amount.Shift(minorUnitExp).IntPart()
	n := int64(len(ids))
	base, rem := units/n, units%n

	shares := make([]Share, 0, len(ids))
	for i, id := range ids {
		u := base
		if int64(i) < rem {
			u++
		}
		shares = append(shares, Share{MemberID: id, Amount: decimal.New(u, -minorUnitExp)})
	}
	return shares, nil
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}
