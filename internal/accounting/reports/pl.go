package reports

import (
	"sort"

	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount float64
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    float64
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Revenue     ProfitAndLossSection
	COGS        ProfitAndLossSection
	Expense     ProfitAndLossSection
	GrossProfit float64
	NetIncome   float64
}

// BuildProfitAndLoss aggregates account balances into the kitchen P&L:
// revenue, HPP (cost of goods), then operating expenses.
func BuildProfitAndLoss(balances []AccountBalance) ProfitAndLoss {
	revenue := ProfitAndLossSection{Label: "Pendapatan"}
	cogs := ProfitAndLossSection{Label: "HPP"}
	expense := ProfitAndLossSection{Label: "Beban"}

	for _, acc := range balances {
		row := ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: acc.Display()}
		switch acc.Category {
		case accounts.CategoryRevenue, accounts.CategoryOtherRevenue:
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total += row.Amount
		case accounts.CategoryCOGS:
			cogs.Accounts = append(cogs.Accounts, row)
			cogs.Total += row.Amount
		case accounts.CategoryExpense, accounts.CategoryOtherExpense:
			expense.Accounts = append(expense.Accounts, row)
			expense.Total += row.Amount
		}
	}

	for _, section := range []*ProfitAndLossSection{&revenue, &cogs, &expense} {
		sort.Slice(section.Accounts, func(i, j int) bool {
			return section.Accounts[i].Code < section.Accounts[j].Code
		})
	}

	gross := revenue.Total - cogs.Total
	return ProfitAndLoss{
		Revenue:     revenue,
		COGS:        cogs,
		Expense:     expense,
		GrossProfit: gross,
		NetIncome:   gross - expense.Total,
	}
}
