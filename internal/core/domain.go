package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OneTime RecurrenceType = "ONE_TIME"
	Monthly RecurrenceType = "MONTHLY"
	Annual  RecurrenceType = "ANNUAL"
)

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

// DateLayout is the ISO calendar date layout used on disk and in messages.
const DateLayout = "2006-01-02"

type (
	RecurrenceType string

	EntryType string

	Date struct {
		time.Time
	}

	Recurrence struct {
		StartDate Date
		Type      RecurrenceType
		Every     int  // interval in months, only meaningful for Monthly
		EndDate   Date // zero when open-ended; not consulted by matching
	}

	FinancialEntry struct {
		Amount      decimal.Decimal
		Description string
		Type        EntryType
		Category    string
		Recurrence  Recurrence
	}
)

var (
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidEntryType  = errors.New("invalid entry type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
)

// EntryTypes lists entry types in display order: income first.
func EntryTypes() []EntryType {
	return []EntryType{Income, Expense}
}

func (t EntryType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t RecurrenceType) IsValid() bool {
	_, ok := monthMatchers[t]
	return ok
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// FirstOfMonth returns the first day of d's month shifted by offset months.
// Month overflow rolls into the adjacent years.
func (d Date) FirstOfMonth(offset int) Date {
	return Date{Time: time.Date(d.Time.Year(), d.Time.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (used for the optional end date)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// MarshalJSON writes an ISO date, or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewRecurrence builds a recurrence starting on start. every is clamped to 1
// for non-monthly types, where it carries no meaning.
func NewRecurrence(typ RecurrenceType, start Date, every int) Recurrence {
	if typ != Monthly || every < 1 {
		every = 1
	}
	return Recurrence{StartDate: start, Type: typ, Every: every}
}

// Validate checks the start date, type and interval. EndDate is informational
// and is not checked against StartDate.
func (r Recurrence) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrence, r.Type)
	}
	if r.Every < 1 {
		return fmt.Errorf("%w: every must be at least 1, got %d", ErrInvalidRecurrence, r.Every)
	}
	return nil
}

// Description renders the schedule for entry listings.
func (r Recurrence) Description() string {
	switch r.Type {
	case OneTime:
		return "One time"
	case Monthly:
		if r.Every <= 1 {
			return "Monthly"
		}
		return fmt.Sprintf("Every %d months", r.Every)
	case Annual:
		return "Annually"
	default:
		return string(r.Type)
	}
}

// Validate checks the type and the schedule. Description and category are
// free-form; any string, including an empty one, is accepted.
func (e FinancialEntry) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, e.Type)
	}
	return e.Recurrence.Validate()
}

// OccursInMonth reports whether the entry's schedule covers month.
func (e FinancialEntry) OccursInMonth(month Date) (bool, error) {
	return e.Recurrence.OccursInMonth(month)
}

// Equal is value equality; amounts compare numerically so "10" equals "10.00".
func (e FinancialEntry) Equal(o FinancialEntry) bool {
	return e.Amount.Equal(o.Amount) &&
		e.Description == o.Description &&
		e.Type == o.Type &&
		e.Category == o.Category &&
		e.Recurrence.Equal(o.Recurrence)
}

func (r Recurrence) Equal(o Recurrence) bool {
	return r.Type == o.Type &&
		r.Every == o.Every &&
		r.StartDate.Equal(o.StartDate.Time) &&
		r.EndDate.Equal(o.EndDate.Time)
}
