package finance

import (
	"fmt"

	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Split is the breakdown of a paid amount.
// Declared+NonDeclared and Cash+Check each equal the paid amount.
type Split struct {
	Declared    decimal.Decimal `json:"declared"`
	NonDeclared decimal.Decimal `json:"non_declared"`
	Cash        decimal.Decimal `json:"cash"`
	Check       decimal.Decimal `json:"check"`
}

// SplitInput carries the sub-amounts a caller supplied. Nil means omitted.
type SplitInput struct {
	Declared    *decimal.Decimal `json:"declared,omitempty"`
	NonDeclared *decimal.Decimal `json:"non_declared,omitempty"`
	Cash        *decimal.Decimal `json:"cash,omitempty"`
	Check       *decimal.Decimal `json:"check,omitempty"`
}

// ExplicitSplit builds a SplitInput with all four sub-amounts set
func ExplicitSplit(declared, nonDeclared, cash, check decimal.Decimal) SplitInput {
	return SplitInput{Declared: &declared, NonDeclared: &nonDeclared, Cash: &cash, Check: &check}
}

// Input returns the split as a fully explicit SplitInput
func (s Split) Input() SplitInput {
	return ExplicitSplit(s.Declared, s.NonDeclared, s.Cash, s.Check)
}

// Validate checks both pair invariants against amount
func (s Split) Validate(amount decimal.Decimal) error {
	for _, v := range []decimal.Decimal{s.Declared, s.NonDeclared, s.Cash, s.Check} {
		if v.IsNegative() {
			return invalidSplit("Split amounts cannot be negative")
		}
		if !valueobject.InMinorUnits(v) {
			return invalidSplit("Split amounts cannot have more than 2 decimal places")
		}
	}
	if !valueobject.AmountsMatch(s.Declared.Add(s.NonDeclared), amount) {
		return invalidSplit(fmt.Sprintf("Declared %s + non-declared %s must equal %s",
			s.Declared.StringFixed(2), s.NonDeclared.StringFixed(2), amount.StringFixed(2)))
	}
	if !valueobject.AmountsMatch(s.Cash.Add(s.Check), amount) {
		return invalidSplit(fmt.Sprintf("Cash %s + check %s must equal %s",
			s.Cash.StringFixed(2), s.Check.StringFixed(2), amount.StringFixed(2)))
	}
	return nil
}

// ResolveSplit validates the supplied sub-amounts of a payment, filling in
// the ones that follow unambiguously from the method.
//
// Mixed methods require all four sub-amounts. Single-leg methods derive the
// cash/check pair from the method and default an omitted declared pair to
// fully declared. No ratio is ever guessed.
func ResolveSplit(total decimal.Decimal, method PaymentMethod, in SplitInput) (Split, error) {
	if !total.IsPositive() {
		return Split{}, shared.NewValidationError(CodeInvalidAmount, "Payment amount must be positive")
	}
	if !valueobject.InMinorUnits(total) {
		return Split{}, shared.NewValidationError(CodeInvalidAmount, "Payment amount cannot have more than 2 decimal places")
	}
	spec, ok := LookupPaymentMethod(method)
	if !ok {
		return Split{}, shared.NewValidationError(CodeInvalidPaymentMethod,
			fmt.Sprintf("Unknown payment method %q", method))
	}

	if spec.IsMixed() && ((in.Declared == nil && in.NonDeclared == nil) || (in.Cash == nil && in.Check == nil)) {
		return Split{}, shared.NewValidationError(CodeMissingSplit,
			fmt.Sprintf("Method %s requires explicit declared/non-declared and cash/check amounts", method))
	}

	declared, nonDeclared, err := resolvePair(in.Declared, in.NonDeclared, total, decimal.Zero, "declared/non-declared")
	if err != nil {
		return Split{}, err
	}

	// Single-leg defaults: everything goes to the one leg the method uses.
	cashDefault, checkDefault := total, decimal.Zero
	if !spec.CashLeg {
		cashDefault, checkDefault = decimal.Zero, total
	}
	cash, check, err := resolvePair(in.Cash, in.Check, cashDefault, checkDefault, "cash/check")
	if err != nil {
		return Split{}, err
	}
	if !spec.CheckLeg && !check.IsZero() {
		return Split{}, invalidSplit(fmt.Sprintf("Method %s cannot carry a check amount", method))
	}
	if !spec.CashLeg && !cash.IsZero() {
		return Split{}, invalidSplit(fmt.Sprintf("Method %s cannot carry a cash amount", method))
	}

	split := Split{Declared: declared, NonDeclared: nonDeclared, Cash: cash, Check: check}
	if err := split.Validate(total); err != nil {
		return Split{}, err
	}
	return split, nil
}

func resolvePair(a, b *decimal.Decimal, defA, defB decimal.Decimal, name string) (decimal.Decimal, decimal.Decimal, error) {
	switch {
	case a == nil && b == nil:
		return defA, defB, nil
	case a == nil || b == nil:
		return decimal.Zero, decimal.Zero, invalidSplit(fmt.Sprintf("Both %s amounts must be supplied together", name))
	}
	return *a, *b, nil
}
