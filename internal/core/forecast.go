package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyForecast is the income and expense breakdown of one calendar month.
// It is derived from entries on demand and never persisted.
type MonthlyForecast struct {
	Month              Date
	ExpensesByCategory map[string]decimal.Decimal
	IncomeByCategory   map[string]decimal.Decimal
}

// ForecastFromEntries aggregates the entries occurring in month by category.
// Categories without an occurring entry are absent from the result.
func ForecastFromEntries(month Date, income, expenses []FinancialEntry) (MonthlyForecast, error) {
	incomeByCategory, err := sumByCategory(month, income)
	if err != nil {
		return MonthlyForecast{}, fmt.Errorf("income: %w", err)
	}
	expensesByCategory, err := sumByCategory(month, expenses)
	if err != nil {
		return MonthlyForecast{}, fmt.Errorf("expenses: %w", err)
	}
	return MonthlyForecast{
		Month:              month,
		ExpensesByCategory: expensesByCategory,
		IncomeByCategory:   incomeByCategory,
	}, nil
}

func sumByCategory(month Date, entries []FinancialEntry) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, e := range entries {
		ok, err := e.OccursInMonth(month)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Description, err)
		}
		if !ok {
			continue
		}
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out, nil
}

func (f MonthlyForecast) TotalIncome() decimal.Decimal {
	return sumValues(f.IncomeByCategory)
}

func (f MonthlyForecast) TotalExpenses() decimal.Decimal {
	return sumValues(f.ExpensesByCategory)
}

func (f MonthlyForecast) Balance() decimal.Decimal {
	return f.TotalIncome().Sub(f.TotalExpenses())
}

// Key identifies the month as "YYYY-M", without zero padding.
func (f MonthlyForecast) Key() string {
	return MonthKey(f.Month)
}

// MonthKey formats the "YYYY-M" key used to index forecast series.
func MonthKey(d Date) string {
	return fmt.Sprintf("%d-%d", d.Year(), d.Month())
}

// IncomeCategories returns the income categories present, sorted.
func (f MonthlyForecast) IncomeCategories() []string {
	return sortedKeys(f.IncomeByCategory)
}

// ExpenseCategories returns the expense categories present, sorted.
func (f MonthlyForecast) ExpenseCategories() []string {
	return sortedKeys(f.ExpensesByCategory)
}

// Equal compares month and per-category sums numerically.
func (f MonthlyForecast) Equal(o MonthlyForecast) bool {
	return f.Month.Year() == o.Month.Year() &&
		f.Month.Month() == o.Month.Month() &&
		equalSums(f.IncomeByCategory, o.IncomeByCategory) &&
		equalSums(f.ExpensesByCategory, o.ExpensesByCategory)
}

func sumValues(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

func equalSums(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
