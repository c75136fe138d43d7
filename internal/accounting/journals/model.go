package journals

import "time"

// Source tags a journal entry with the kind of transaction that produced it.
type Source string

const (
	SourceCash         Source = "cash"
	SourcePurchase     Source = "purchase"
	SourceAPPayment    Source = "ap_payment"
	SourceStockUsage   Source = "stock_usage"
	SourceSalesInvoice Source = "sales_invoice"
	SourceARPayment    Source = "ar_payment"
	SourceManual       Source = "manual"
)

// JournalEntry records one balanced business event. Entries are fully owned
// by their source transaction: edits delete and recreate them wholesale.
type JournalEntry struct {
	ID        int64
	TenantID  int64
	Date      time.Time
	Memo      string
	Source    Source
	SourceID  int64
	CreatedAt time.Time
	Lines     []JournalLine
}

// Tenant implements shared.TenantScoped.
func (e JournalEntry) Tenant() int64 { return e.TenantID }

// JournalLine stores one debit or credit posting. The account code and name
// are denormalized snapshots so renaming an account never rewrites history.
type JournalLine struct {
	ID          int64
	TenantID    int64
	EntryID     int64
	AccountCode string
	AccountName string
	Debit       float64
	Credit      float64
}

// Tenant implements shared.TenantScoped.
func (l JournalLine) Tenant() int64 { return l.TenantID }
