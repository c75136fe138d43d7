package reports

import (
	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
)

// AccountBalance models one ledger account with aggregated raw figures as
// the balance query produced them (debit minus credit, never negated).
type AccountBalance struct {
	Code     string
	Name     string
	Category string
	Debit    float64
	Credit   float64
}

// Raw returns the unadjusted debit-minus-credit figure.
func (a AccountBalance) Raw() float64 {
	return a.Debit - a.Credit
}

// Display returns the figure as a report shows it: natural-credit accounts
// (revenue, payables, equity) are negated so a credit-heavy balance reads
// positive.
func (a AccountBalance) Display() float64 {
	if accounts.NaturalCredit(a.Category) {
		return -a.Raw()
	}
	return a.Raw()
}
