package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/model"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned for unknown entry ids and account codes.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyReversed is returned when reversing a reversed entry.
	ErrAlreadyReversed = errors.New("journal entry already reversed")

	// ErrNotPosted is returned when an operation needs a posted entry.
	ErrNotPosted = errors.New("journal entry is not posted")
)

// Rule names a validation rule.
type Rule string

const (
	RuleUnbalanced     Rule = "unbalanced entry"
	RuleDegenerateLine Rule = "degenerate line"
	RuleMissingField   Rule = "missing required field"
	RuleUnknownAccount Rule = "unknown account"
)

// DefaultTolerance is the largest accepted |debits - credits| of an entry.
var DefaultTolerance = decimal.RequireFromString("0.01")

// ValidationError describes a single rule violation. Line is the zero-based
// line index, or -1 for entry-level rules.
type ValidationError struct {
	Rule        Rule
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s", e.Rule, e.Description)
	}
	return fmt.Sprintf("%s: line %d: %s", e.Rule, e.Line+1, e.Description)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AccountChecker tests whether an account code exists in the chart of accounts.
type AccountChecker interface {
	Exists(code string) bool
}

// ValidateEntry checks a proposed entry against the double-entry rules.
func ValidateEntry(date time.Time, description string, lines []model.JournalLine, accounts AccountChecker, tolerance decimal.Decimal) []ValidationError {
	var errs []ValidationError

	if date.IsZero() {
		errs = append(errs, ValidationError{Rule: RuleMissingField, Line: -1, Description: "date is required"})
	}
	if description == "" {
		errs = append(errs, ValidationError{Rule: RuleMissingField, Line: -1, Description: "description is required"})
	}
	if len(lines) < 2 {
		errs = append(errs, ValidationError{
			Rule:        RuleMissingField,
			Line:        -1,
			Description: fmt.Sprintf("an entry needs at least two lines, got %d", len(lines)),
		})
	}

	for i, line := range lines {
		if line.AccountCode == "" {
			errs = append(errs, ValidationError{Rule: RuleMissingField, Line: i, Description: "account code is required"})
		} else if !accounts.Exists(line.AccountCode) {
			errs = append(errs, ValidationError{
				Rule:        RuleUnknownAccount,
				Line:        i,
				Description: fmt.Sprintf("unknown account %s", line.AccountCode),
			})
		}

		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			errs = append(errs, ValidationError{
				Rule:        RuleDegenerateLine,
				Line:        i,
				Description: fmt.Sprintf("negative amount (debit %s, credit %s)", line.Debit, line.Credit),
			})
			continue
		}

		// Exactly one side carries the amount.
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{
				Rule:        RuleDegenerateLine,
				Line:        i,
				Description: "line must have exactly one of debit or credit",
			})
		}
	}

	debits, credits := model.Totals(lines)
	if debits.Sub(credits).Abs().GreaterThan(tolerance) {
		errs = append(errs, ValidationError{
			Rule:        RuleUnbalanced,
			Line:        -1,
			Description: fmt.Sprintf("debits (%s) != credits (%s)", debits.StringFixed(2), credits.StringFixed(2)),
		})
	}

	return errs
}

// joinValidation wraps violations into a single error that still matches
// ErrValidation and each ValidationError.
func joinValidation(verrs []ValidationError) error {
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		errs[i] = ve
	}
	return fmt.Errorf("validation failed: %w", errors.Join(errs...))
}
