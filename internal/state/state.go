// Package state owns the user's financial entries and turns them into
// monthly forecasts.
//
// A FinancialState is not safe for concurrent use; front ends serialize
// calls into it. Nothing is cached, so every forecast reflects the entries
// as they are at the time of the call.
package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrFileAccess      = errors.New("state file access failed")
	ErrMalformedState  = errors.New("malformed state")
)

// FinancialState is the root aggregate: entries by type, the categories seen
// for each type, and the currency used for display.
type FinancialState struct {
	entries      map[core.EntryType][]core.FinancialEntry
	categories   map[core.EntryType]map[string]struct{}
	currencyCode string
	now          func() time.Time
}

// Option configures a FinancialState at construction.
type Option func(*FinancialState)

// WithClock sets the clock used to find the current month.
func WithClock(now func() time.Time) Option {
	return func(s *FinancialState) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCurrency sets the initial currency code. Unknown codes are ignored and
// the default is kept; use SetCurrencyCode to get an error instead.
func WithCurrency(code string) Option {
	return func(s *FinancialState) {
		if core.IsKnownCurrency(code) {
			s.currencyCode = code
		}
	}
}

// New returns an empty state using the default currency.
func New(opts ...Option) *FinancialState {
	s := &FinancialState{
		entries: map[core.EntryType][]core.FinancialEntry{
			core.Income:  nil,
			core.Expense: nil,
		},
		categories: map[core.EntryType]map[string]struct{}{
			core.Income:  {},
			core.Expense: {},
		},
		currencyCode: core.DefaultCurrency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IncomeEntries returns a copy of the income entries in insertion order.
func (s *FinancialState) IncomeEntries() []core.FinancialEntry {
	return s.Entries(core.Income)
}

// ExpenseEntries returns a copy of the expense entries in insertion order.
func (s *FinancialState) ExpenseEntries() []core.FinancialEntry {
	return s.Entries(core.Expense)
}

// Entries returns a copy of the entries of one type in insertion order.
func (s *FinancialState) Entries(typ core.EntryType) []core.FinancialEntry {
	src := s.entries[typ]
	out := make([]core.FinancialEntry, len(src))
	copy(out, src)
	return out
}

func (s *FinancialState) IncomeCategories() []string {
	return s.Categories(core.Income)
}

func (s *FinancialState) ExpenseCategories() []string {
	return s.Categories(core.Expense)
}

// Categories returns the sorted category names registered for typ.
func (s *FinancialState) Categories(typ core.EntryType) []string {
	set := s.categories[typ]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AddCategory registers a category for typ. Blank names are ignored.
func (s *FinancialState) AddCategory(typ core.EntryType, category string) error {
	if !typ.IsValid() {
		return fmt.Errorf("%w: entry type %q", ErrInvalidArgument, typ)
	}
	s.registerCategory(typ, category)
	return nil
}

func (s *FinancialState) registerCategory(typ core.EntryType, category string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return
	}
	s.categories[typ][category] = struct{}{}
}

// AddEntry appends entry to the list of its type and registers its category.
func (s *FinancialState) AddEntry(entry core.FinancialEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	s.entries[entry.Type] = append(s.entries[entry.Type], entry)
	s.registerCategory(entry.Type, entry.Category)
	return nil
}

// RemoveEntry removes the first entry value-equal to entry. It returns
// ErrEntryNotFound when there is none. Categories are left registered.
func (s *FinancialState) RemoveEntry(entry core.FinancialEntry) error {
	list := s.entries[entry.Type]
	for i := range list {
		if list[i].Equal(entry) {
			return s.RemoveEntryAt(entry.Type, i)
		}
	}
	return fmt.Errorf("%w: %q", ErrEntryNotFound, entry.Description)
}

// RemoveEntryAt removes the entry at index in the list of typ.
func (s *FinancialState) RemoveEntryAt(typ core.EntryType, index int) error {
	list, ok := s.entries[typ]
	if !ok {
		return fmt.Errorf("%w: entry type %q", ErrInvalidArgument, typ)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s index %d", ErrEntryNotFound, typ, index)
	}
	next := make([]core.FinancialEntry, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	s.entries[typ] = next
	return nil
}

// UpdateEntry replaces the entry at index in the list of typ. When the
// replacement has a different type it moves to the end of that type's list.
func (s *FinancialState) UpdateEntry(typ core.EntryType, index int, entry core.FinancialEntry) error {
	list, ok := s.entries[typ]
	if !ok {
		return fmt.Errorf("%w: entry type %q", ErrInvalidArgument, typ)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s index %d", ErrEntryNotFound, typ, index)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if entry.Type != typ {
		if err := s.RemoveEntryAt(typ, index); err != nil {
			return err
		}
		return s.AddEntry(entry)
	}
	next := make([]core.FinancialEntry, len(list))
	copy(next, list)
	next[index] = entry
	s.entries[typ] = next
	s.registerCategory(typ, entry.Category)
	return nil
}

func (s *FinancialState) CurrencyCode() string {
	return s.currencyCode
}

// SetCurrencyCode changes the display currency.
func (s *FinancialState) SetCurrencyCode(code string) error {
	if !core.IsKnownCurrency(code) {
		return fmt.Errorf("%w: %q", core.ErrUnknownCurrency, code)
	}
	s.currencyCode = code
	return nil
}

// FormatAmount renders amount in the state's currency.
func (s *FinancialState) FormatAmount(amount decimal.Decimal) (string, error) {
	return core.FormatCurrency(amount, s.currencyCode)
}

// CurrentMonth returns the first day of the month the clock is in.
func (s *FinancialState) CurrentMonth() core.Date {
	return core.DateOf(s.now()).FirstOfMonth(0)
}

// MonthlyForecast aggregates the current entries for month.
func (s *FinancialState) MonthlyForecast(month core.Date) (core.MonthlyForecast, error) {
	return core.ForecastFromEntries(month, s.entries[core.Income], s.entries[core.Expense])
}

// ForecastForNextNMonths returns forecasts for n consecutive months starting
// with the current one.
func (s *FinancialState) ForecastForNextNMonths(n int) (ForecastSeries, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: month count must be positive, got %d", ErrInvalidArgument, n)
	}
	return s.ForecastRange(s.CurrentMonth(), n)
}

// ForecastForPreviousNMonths returns forecasts for the n months preceding the
// current one, oldest first. The current month is not included.
func (s *FinancialState) ForecastForPreviousNMonths(n int) (ForecastSeries, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: month count must be positive, got %d", ErrInvalidArgument, n)
	}
	return s.ForecastRange(s.CurrentMonth().FirstOfMonth(-n), n)
}

// ForecastRange returns forecasts for n consecutive months starting with the
// month of start.
func (s *FinancialState) ForecastRange(start core.Date, n int) (ForecastSeries, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: month count must be positive, got %d", ErrInvalidArgument, n)
	}
	series := make(ForecastSeries, 0, n)
	for i := 0; i < n; i++ {
		f, err := s.MonthlyForecast(start.FirstOfMonth(i))
		if err != nil {
			return nil, err
		}
		series = append(series, f)
	}
	return series, nil
}

// EntriesForMonth returns the entries occurring in month: income first, then
// expenses, each in insertion order.
func (s *FinancialState) EntriesForMonth(month core.Date) ([]core.FinancialEntry, error) {
	var out []core.FinancialEntry
	for _, typ := range core.EntryTypes() {
		for _, e := range s.entries[typ] {
			ok, err := e.OccursInMonth(month)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", e.Description, err)
			}
			if ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
