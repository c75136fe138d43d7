package accounts

import "time"

// Account category strings as the bookkeeping screens use them.
const (
	CategoryCashBank     = "Kas & Bank"
	CategoryReceivable   = "Akun Piutang"
	CategoryPayable      = "Akun Hutang"
	CategoryInventory    = "Persediaan"
	CategoryEquity       = "Modal"
	CategoryRevenue      = "Pendapatan"
	CategoryOtherRevenue = "Pendapatan Lain"
	CategoryCOGS         = "HPP"
	CategoryExpense      = "Beban"
	CategoryOtherExpense = "Beban Lain"
)

// Well-known account codes the posting rules depend on.
const (
	// CodeInventory is the stock asset account debited on purchases.
	CodeInventory = "10051"
	// CodePayable is the accounts payable account credited on purchases.
	CodePayable = "20011"
)

// Account models one chart-of-accounts row. Codes are unique per tenant and
// journal lines reference accounts by code, never by ID.
type Account struct {
	ID        int64
	TenantID  int64
	Code      string
	Name      string
	Category  string
	IsActive  bool
	CreatedAt time.Time
}

// Tenant implements shared.TenantScoped.
func (a Account) Tenant() int64 { return a.TenantID }

// NaturalCredit reports whether the category carries a natural credit
// balance. Raw balances for these accounts come out negative and reporting
// layers negate them for display; the balance query itself never does.
func NaturalCredit(category string) bool {
	switch category {
	case CategoryPayable, CategoryEquity, CategoryRevenue, CategoryOtherRevenue:
		return true
	}
	return false
}

// DefaultChart is the chart seeded for a new kitchen.
func DefaultChart() []Account {
	return []Account{
		{Code: "10011", Name: "Kas", Category: CategoryCashBank},
		{Code: "10012", Name: "Bank", Category: CategoryCashBank},
		{Code: "10031", Name: "Piutang Usaha", Category: CategoryReceivable},
		{Code: CodeInventory, Name: "Persediaan Bahan", Category: CategoryInventory},
		{Code: CodePayable, Name: "Hutang Usaha", Category: CategoryPayable},
		{Code: "30011", Name: "Modal Pemilik", Category: CategoryEquity},
		{Code: "40011", Name: "Pendapatan Penjualan", Category: CategoryRevenue},
		{Code: "40091", Name: "Pendapatan Lain-lain", Category: CategoryOtherRevenue},
		{Code: "50011", Name: "HPP Bahan Baku", Category: CategoryCOGS},
		{Code: "60011", Name: "Beban Gaji", Category: CategoryExpense},
		{Code: "60021", Name: "Beban Listrik & Air", Category: CategoryExpense},
		{Code: "60091", Name: "Beban Lain-lain", Category: CategoryOtherExpense},
	}
}
