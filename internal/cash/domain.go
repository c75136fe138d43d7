package cash

import (
	"time"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// Direction marks money flowing into or out of a cash/bank account.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Transaction models one cash movement. Account code and name pairs are
// snapshots taken at entry time.
type Transaction struct {
	ID                 int64
	TenantID           int64
	Date               time.Time
	Direction          Direction
	CashAccountCode    string
	CashAccountName    string
	CounterAccountCode string
	CounterAccountName string
	Amount             float64
	Memo               string
	JournalEntryID     *int64
	CreatedAt          time.Time
}

// Tenant implements shared.TenantScoped.
func (t Transaction) Tenant() int64 { return t.TenantID }

var _ shared.TenantScoped = Transaction{}

// JournalDraft builds the balanced entry for a cash movement: money in
// debits the cash account, money out credits it.
func JournalDraft(t Transaction) journals.Draft {
	cashRef := journals.Ref{Code: t.CashAccountCode, Name: t.CashAccountName}
	counterRef := journals.Ref{Code: t.CounterAccountCode, Name: t.CounterAccountName}
	lines := journals.Pair(cashRef, counterRef, t.Amount)
	if t.Direction == DirectionOut {
		lines = journals.Pair(counterRef, cashRef, t.Amount)
	}
	return journals.Draft{
		Date:     t.Date,
		Memo:     t.Memo,
		Source:   journals.SourceCash,
		SourceID: t.ID,
		Lines:    lines,
	}
}
