package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
)

var ErrInvalidMessage = errors.New("invalid forecast message")

// ForecastMessage carries one month of a forecast to the export worker.
// Amounts travel as decimal strings so no precision is lost on the wire.
type ForecastMessage struct {
	Key                string                     `json:"key"`
	Month              core.Date                  `json:"month"`
	Currency           string                     `json:"currency"`
	IncomeByCategory   map[string]decimal.Decimal `json:"income_by_category"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expenses_by_category"`
	TotalIncome        decimal.Decimal            `json:"total_income"`
	TotalExpenses      decimal.Decimal            `json:"total_expenses"`
	Balance            decimal.Decimal            `json:"balance"`
	Timestamp          time.Time                  `json:"timestamp"`
}

// NewForecastMessage snapshots f for publishing in the given currency.
func NewForecastMessage(f core.MonthlyForecast, currency string) *ForecastMessage {
	return &ForecastMessage{
		Key:                f.Key(),
		Month:              f.Month,
		Currency:           currency,
		IncomeByCategory:   copyAmounts(f.IncomeByCategory),
		ExpensesByCategory: copyAmounts(f.ExpensesByCategory),
		TotalIncome:        f.TotalIncome(),
		TotalExpenses:      f.TotalExpenses(),
		Balance:            f.Balance(),
		Timestamp:          time.Now(),
	}
}

// Validate checks the month, the currency and that the totals agree with the
// per-category amounts.
func (m *ForecastMessage) Validate() error {
	if m.Month.IsEmpty() {
		return fmt.Errorf("%w: missing month", ErrInvalidMessage)
	}
	if m.Key != core.MonthKey(m.Month) {
		return fmt.Errorf("%w: key %q does not match month %s", ErrInvalidMessage, m.Key, m.Month)
	}
	if !core.IsKnownCurrency(m.Currency) {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidMessage, m.Currency)
	}
	f := m.ToForecast()
	if !f.TotalIncome().Equal(m.TotalIncome) || !f.TotalExpenses().Equal(m.TotalExpenses) || !f.Balance().Equal(m.Balance) {
		return fmt.Errorf("%w: totals do not match category amounts", ErrInvalidMessage)
	}
	return nil
}

// ToForecast rebuilds the forecast carried by the message.
func (m *ForecastMessage) ToForecast() core.MonthlyForecast {
	return core.MonthlyForecast{
		Month:              m.Month,
		IncomeByCategory:   copyAmounts(m.IncomeByCategory),
		ExpensesByCategory: copyAmounts(m.ExpensesByCategory),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ForecastMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ForecastMessageFromJSON decodes and validates a message.
func ForecastMessageFromJSON(data []byte) (*ForecastMessage, error) {
	var msg ForecastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func copyAmounts(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
