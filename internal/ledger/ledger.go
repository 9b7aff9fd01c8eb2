// Package ledger reduces transaction sets into the figures shown on the
// dashboard. Everything here is pure: no I/O, no clock, same input same output.
package ledger

import (
	"sort"

	"github.com/isdelr/incomesense-be/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary holds the totals for a set of transactions.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
	SavingsRate  decimal.Decimal `json:"savingsRate"` // percent, two decimals
}

// MonthlyPoint is one bucket of the income/expense time series.
type MonthlyPoint struct {
	Period  string          `json:"period"` // YYYY-MM
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// FilterByPeriod keeps the transactions dated in the given month and year.
// The input order is preserved.
func FilterByPeriod(txs []models.Transaction, month, year int) []models.Transaction {
	p := Period{Month: month, Year: year}
	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// Summarize totals income and expense. The savings rate is zero when there
// is no income.
func Summarize(txs []models.Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case models.Income:
			income = income.Add(t.Amount)
		case models.Expense:
			expense = expense.Add(t.Amount)
		}
	}

	balance := income.Sub(expense)
	rate := decimal.Zero
	if !income.IsZero() {
		rate = balance.Div(income).Mul(hundred).Round(2)
	}

	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      balance,
		SavingsRate:  rate,
	}
}

// CategoryBreakdown sums expense amounts per category. Income is ignored.
func CategoryBreakdown(txs []models.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != models.Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// MonthlySeries groups every transaction by calendar month and returns the
// buckets in ascending chronological order.
func MonthlySeries(txs []models.Transaction) []MonthlyPoint {
	buckets := make(map[Period]*MonthlyPoint)
	for _, t := range txs {
		p := PeriodOf(t.Date)
		b, ok := buckets[p]
		if !ok {
			b = &MonthlyPoint{Period: p.String(), Year: p.Year, Month: p.Month}
			buckets[p] = b
		}
		switch t.Type {
		case models.Income:
			b.Income = b.Income.Add(t.Amount)
		case models.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	periods := make([]Period, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	out := make([]MonthlyPoint, 0, len(periods))
	for _, p := range periods {
		out = append(out, *buckets[p])
	}
	return out
}

// Report bundles the period view with the all-time monthly trend.
type Report struct {
	Period     Period                     `json:"period"`
	Summary    Summary                    `json:"summary"`
	Categories map[string]decimal.Decimal `json:"categories"`
	Monthly    []MonthlyPoint             `json:"monthly"`
}

// BuildReport filters txs to p for the summary and category figures, and uses
// the full set for the monthly series.
func BuildReport(txs []models.Transaction, p Period) Report {
	inPeriod := FilterByPeriod(txs, p.Month, p.Year)
	return Report{
		Period:     p,
		Summary:    Summarize(inPeriod),
		Categories: CategoryBreakdown(inPeriod),
		Monthly:    MonthlySeries(txs),
	}
}
