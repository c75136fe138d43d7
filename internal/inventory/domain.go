package inventory

import (
	"errors"
	"time"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// Item models one stock item. StockQty and AvgCost are derived state: they
// must always equal the replay of the item's purchase/usage history.
type Item struct {
	ID        int64
	TenantID  int64
	Name      string
	Category  string
	Unit      string
	MinStock  float64
	StockQty  float64
	AvgCost   float64
	IsActive  bool
	CreatedAt time.Time
}

// Tenant implements shared.TenantScoped.
func (i Item) Tenant() int64 { return i.TenantID }

var _ shared.TenantScoped = Item{}

// Valuation returns the current inventory value of the item.
func (i Item) Valuation() float64 {
	return i.StockQty * i.AvgCost
}

// BelowMinStock reports whether the item needs restocking.
func (i Item) BelowMinStock() bool {
	return i.StockQty < i.MinStock
}

// Usage records consumption of stock at the average cost current when it
// was entered. The HPP account is chosen by the caller per usage.
type Usage struct {
	ID             int64
	TenantID       int64
	Date           time.Time
	ItemID         int64
	ItemName       string
	Qty            float64
	UnitCost       float64
	TotalCost      float64
	HPPAccountCode string
	HPPAccountName string
	Memo           string
	JournalEntryID *int64
	CreatedAt      time.Time
}

// Tenant implements shared.TenantScoped.
func (u Usage) Tenant() int64 { return u.TenantID }

var _ shared.TenantScoped = Usage{}

// UsageJournal builds the balanced entry for a consumption: debit the
// chosen HPP/expense account, credit the inventory asset account.
func UsageJournal(u Usage, inventoryAccount journals.Ref) journals.Draft {
	hpp := journals.Ref{Code: u.HPPAccountCode, Name: u.HPPAccountName}
	return journals.Draft{
		Date:     u.Date,
		Memo:     u.Memo,
		Source:   journals.SourceStockUsage,
		SourceID: u.ID,
		Lines:    journals.Pair(hpp, inventoryAccount, u.TotalCost),
	}
}

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInvalidUnitCost indicates a negative cost value.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
