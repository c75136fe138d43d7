package journals

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bukudapur/bukudapur/internal/shared"
)

// Ref is a denormalized account snapshot carried onto journal lines.
type Ref struct {
	Code string
	Name string
}

// LineDraft describes one posting before persistence.
type LineDraft struct {
	Account Ref
	Debit   float64
	Credit  float64
}

// Draft groups everything required to write a journal entry.
type Draft struct {
	Date     time.Time
	Memo     string
	Source   Source
	SourceID int64
	Lines    []LineDraft
}

// Pair builds the standard two-line shape: debit one account, credit
// another, same amount.
func Pair(debit, credit Ref, amount float64) []LineDraft {
	return []LineDraft{
		{Account: debit, Debit: amount},
		{Account: credit, Credit: amount},
	}
}

// Validate checks the draft before any row is written. An unbalanced draft
// is an internal invariant violation: the per-source builders always emit
// paired lines, so this guard should never fire.
func (d Draft) Validate() error {
	if d.Source == "" {
		return errors.New("journals: source required")
	}
	if d.SourceID == 0 && d.Source != SourceManual {
		return errors.New("journals: source id required")
	}
	if d.Date.IsZero() {
		return errors.New("journals: date required")
	}
	if len(d.Lines) < 2 {
		return errors.New("journals: entry requires at least two lines")
	}
	var debit, credit float64
	for i, line := range d.Lines {
		if line.Account.Code == "" {
			return fmt.Errorf("journals: line %d missing account code", i)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journals: line %d negative amount", i)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("journals: line %d cannot be both debit and credit", i)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > shared.BalanceTolerance {
		return fmt.Errorf("%w: debit %.4f credit %.4f", shared.ErrUnbalancedEntry, debit, credit)
	}
	return nil
}
