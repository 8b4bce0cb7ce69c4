package core

import "fmt"

// MonthMatcher is the strategy deciding whether a recurrence covers a month.
// Each implementation encapsulates the rule for one RecurrenceType.
type MonthMatcher interface {
	// Matches reports whether a schedule starting on start with the given
	// interval applies to the calendar month of target.
	Matches(start, target Date, every int) bool
}

// OneTimeMatcher matches only the start date's own year and month.
type OneTimeMatcher struct{}

func (OneTimeMatcher) Matches(start, target Date, _ int) bool {
	return start.Year() == target.Year() && start.Month() == target.Month()
}

// MonthlyMatcher ties months by their number modulo the interval.
//
// Years are not considered: an every=2 schedule starting in February matches
// every even month of every year, including years before the start date.
type MonthlyMatcher struct{}

func (MonthlyMatcher) Matches(start, target Date, every int) bool {
	return target.Month()%every == start.Month()%every
}

// AnnualMatcher matches the start month in any year.
type AnnualMatcher struct{}

func (AnnualMatcher) Matches(start, target Date, _ int) bool {
	return start.Month() == target.Month()
}

// monthMatchers maps recurrence types to their matchers. It is never mutated
// after package initialization.
var monthMatchers = map[RecurrenceType]MonthMatcher{
	OneTime: OneTimeMatcher{},
	Monthly: MonthlyMatcher{},
	Annual:  AnnualMatcher{},
}

// GetMonthMatcher returns the matcher for a recurrence type.
// Returns ErrInvalidRecurrence if the type is not supported.
func GetMonthMatcher(typ RecurrenceType) (MonthMatcher, error) {
	m, ok := monthMatchers[typ]
	if !ok {
		return nil, fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidRecurrence, typ)
	}
	return m, nil
}

// OccursInMonth reports whether the recurrence covers the calendar month of
// target. The day of month of target is ignored.
func (r Recurrence) OccursInMonth(target Date) (bool, error) {
	m, err := GetMonthMatcher(r.Type)
	if err != nil {
		return false, err
	}
	if r.Every < 1 {
		return false, fmt.Errorf("%w: every must be at least 1, got %d", ErrInvalidRecurrence, r.Every)
	}
	return m.Matches(r.StartDate, target, r.Every), nil
}
