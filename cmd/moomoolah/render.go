package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
	"moomoolah/internal/state"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func formatAmount(s *state.FinancialState, amount decimal.Decimal) string {
	text, err := s.FormatAmount(amount)
	if err != nil {
		return amount.StringFixed(2)
	}
	return text
}

func titleType(typ core.EntryType) string {
	switch typ {
	case core.Income:
		return "Income"
	case core.Expense:
		return "Expenses"
	default:
		return string(typ)
	}
}

func monthLabel(d core.Date) string {
	return d.Time.Format("Jan 2006")
}

func renderSeries(out io.Writer, s *state.FinancialState, series state.ForecastSeries) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSES\tBALANCE")

	income, expenses := decimal.Zero, decimal.Zero
	for _, f := range series {
		income = income.Add(f.TotalIncome())
		expenses = expenses.Add(f.TotalExpenses())
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			monthLabel(f.Month),
			formatAmount(s, f.TotalIncome()),
			formatAmount(s, f.TotalExpenses()),
			formatAmount(s, f.Balance()))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\n",
		formatAmount(s, income),
		formatAmount(s, expenses),
		formatAmount(s, income.Sub(expenses)))
	return tw.Flush()
}

func renderMonth(out io.Writer, s *state.FinancialState, f core.MonthlyForecast, entries []core.FinancialEntry) error {
	fmt.Fprintf(out, "%s\n\n", monthLabel(f.Month))

	tw := newTable(out)
	if len(entries) == 0 {
		fmt.Fprintln(tw, "No entries this month.")
	} else {
		fmt.Fprintln(tw, "TYPE\tDESCRIPTION\tCATEGORY\tAMOUNT\tRECURRENCE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				strings.ToLower(string(e.Type)), e.Description, e.Category,
				formatAmount(s, e.Amount), e.Recurrence.Description())
		}
	}
	fmt.Fprintln(tw)

	writeCategories := func(title string, categories []string, amounts map[string]decimal.Decimal, total decimal.Decimal) {
		fmt.Fprintf(tw, "%s\t%s\n", title, formatAmount(s, total))
		for _, c := range categories {
			fmt.Fprintf(tw, "  %s\t%s\n", c, formatAmount(s, amounts[c]))
		}
	}
	writeCategories("Income", f.IncomeCategories(), f.IncomeByCategory, f.TotalIncome())
	writeCategories("Expenses", f.ExpenseCategories(), f.ExpensesByCategory, f.TotalExpenses())
	fmt.Fprintf(tw, "Balance\t%s\n", formatAmount(s, f.Balance()))
	return tw.Flush()
}

func renderEntries(out io.Writer, s *state.FinancialState, types []core.EntryType) error {
	tw := newTable(out)
	for i, typ := range types {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\n", titleType(typ))
		entries := s.Entries(typ)
		if len(entries) == 0 {
			fmt.Fprintln(tw, "  none")
			continue
		}
		fmt.Fprintln(tw, "#\tDESCRIPTION\tCATEGORY\tAMOUNT\tRECURRENCE\tSTART\tEND")
		for n, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				n+1, e.Description, e.Category, formatAmount(s, e.Amount),
				e.Recurrence.Description(), e.Recurrence.StartDate, e.Recurrence.EndDate)
		}
	}
	return tw.Flush()
}
