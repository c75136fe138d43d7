package procurement

import (
	"time"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// Supplier is master data for purchase entry.
type Supplier struct {
	ID        int64
	TenantID  int64
	Name      string
	Phone     string
	Address   string
	IsActive  bool
	CreatedAt time.Time
}

// Tenant implements shared.TenantScoped.
func (s Supplier) Tenant() int64 { return s.TenantID }

var _ shared.TenantScoped = Supplier{}

// Purchase is a stock purchase on account. The supplier name is a snapshot
// taken at entry time; IsPaid is derived from the payments recorded against
// the purchase.
type Purchase struct {
	ID             int64
	TenantID       int64
	Date           time.Time
	SupplierID     int64
	SupplierName   string
	Total          float64
	IsPaid         bool
	Memo           string
	JournalEntryID *int64
	CreatedAt      time.Time
	Lines          []PurchaseLine
}

// Tenant implements shared.TenantScoped.
func (p Purchase) Tenant() int64 { return p.TenantID }

var _ shared.TenantScoped = Purchase{}

// PurchaseLine is one item received on a purchase.
type PurchaseLine struct {
	ID         int64
	TenantID   int64
	PurchaseID int64
	ItemID     int64
	ItemName   string
	Qty        float64
	UnitCost   float64
	Subtotal   float64
}

// Tenant implements shared.TenantScoped.
func (l PurchaseLine) Tenant() int64 { return l.TenantID }

var _ shared.TenantScoped = PurchaseLine{}

// Payment settles part or all of a purchase from a cash/bank account.
type Payment struct {
	ID              int64
	TenantID        int64
	Date            time.Time
	PurchaseID      int64
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

// Settled reports whether recorded payments cover the purchase total. A
// zero-total purchase is never considered paid.
func Settled(total, paid float64) bool {
	return total > 0 && paid+shared.BalanceTolerance >= total
}

// PurchaseJournal builds the balanced entry for a purchase on account:
// debit inventory, credit accounts payable.
func PurchaseJournal(p Purchase, inventory, payable journals.Ref) journals.Draft {
	return journals.Draft{
		Date:     p.Date,
		Memo:     p.Memo,
		Source:   journals.SourcePurchase,
		SourceID: p.ID,
		Lines:    journals.Pair(inventory, payable, p.Total),
	}
}

// PaymentJournal builds the balanced entry for settling a purchase: debit
// accounts payable, credit the cash/bank account the money left.
func PaymentJournal(p Payment, payable journals.Ref) journals.Draft {
	cashRef := journals.Ref{Code: p.CashAccountCode, Name: p.CashAccountName}
	return journals.Draft{
		Date:     p.Date,
		Memo:     p.Memo,
		Source:   journals.SourceAPPayment,
		SourceID: p.ID,
		Lines:    journals.Pair(payable, cashRef, p.Amount),
	}
}
