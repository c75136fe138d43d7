package sales

import (
	"fmt"
	"time"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// Status tracks how much of an invoice has been collected.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Invoice bills a customer on account. Account code and name pairs are
// snapshots taken at entry time; PaidAmount and Status are derived from the
// payments recorded against the invoice.
type Invoice struct {
	ID                 int64
	TenantID           int64
	InvoiceNo          string
	Date               time.Time
	CustomerName       string
	Total              float64
	PaidAmount         float64
	Status             Status
	ARAccountCode      string
	ARAccountName      string
	RevenueAccountCode string
	RevenueAccountName string
	Memo               string
	JournalEntryID     *int64
	CreatedAt          time.Time
	Lines              []InvoiceLine
}

// Tenant implements shared.TenantScoped.
func (i Invoice) Tenant() int64 { return i.TenantID }

var _ shared.TenantScoped = Invoice{}

// InvoiceLine is one billed position. Lines are descriptive only and never
// touch stock.
type InvoiceLine struct {
	ID          int64
	TenantID    int64
	InvoiceID   int64
	Description string
	Qty         float64
	UnitPrice   float64
	Subtotal    float64
}

// Tenant implements shared.TenantScoped.
func (l InvoiceLine) Tenant() int64 { return l.TenantID }

var _ shared.TenantScoped = InvoiceLine{}

// Payment collects part or all of an invoice into a cash/bank account.
type Payment struct {
	ID              int64
	TenantID        int64
	Date            time.Time
	InvoiceID       int64
	Amount          float64
	CashAccountCode string
	CashAccountName string
	Memo            string
	JournalEntryID  *int64
	CreatedAt       time.Time
}

// Tenant implements shared.TenantScoped.
func (p Payment) Tenant() int64 { return p.TenantID }

var _ shared.TenantScoped = Payment{}

// DerivePayment returns the stored paid amount and status for an invoice
// total and the raw sum of its payments. Overpayment is clamped to the
// total so the stored amount never exceeds it.
func DerivePayment(total, paidSum float64) (float64, Status) {
	paid := paidSum
	if paid > total {
		paid = total
	}
	switch {
	case total > 0 && paid+shared.BalanceTolerance >= total:
		return paid, StatusPaid
	case paid > shared.BalanceTolerance:
		return paid, StatusPartial
	default:
		return paid, StatusUnpaid
	}
}

// InvoiceNo formats the document number for an invoice issued in a month
// with the given per-tenant sequence.
func InvoiceNo(date time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%04d", date.Format("200601"), seq)
}

// InvoiceJournal builds the balanced entry for billing on account: debit
// accounts receivable, credit revenue.
func InvoiceJournal(inv Invoice) journals.Draft {
	ar := journals.Ref{Code: inv.ARAccountCode, Name: inv.ARAccountName}
	revenue := journals.Ref{Code: inv.RevenueAccountCode, Name: inv.RevenueAccountName}
	return journals.Draft{
		Date:     inv.Date,
		Memo:     inv.Memo,
		Source:   journals.SourceSalesInvoice,
		SourceID: inv.ID,
		Lines:    journals.Pair(ar, revenue, inv.Total),
	}
}

// PaymentJournal builds the balanced entry for collecting an invoice: debit
// the cash/bank account the money arrived in, credit accounts receivable.
func PaymentJournal(p Payment, receivable journals.Ref) journals.Draft {
	cashRef := journals.Ref{Code: p.CashAccountCode, Name: p.CashAccountName}
	return journals.Draft{
		Date:     p.Date,
		Memo:     p.Memo,
		Source:   journals.SourceARPayment,
		SourceID: p.ID,
		Lines:    journals.Pair(cashRef, receivable, p.Amount),
	}
}
