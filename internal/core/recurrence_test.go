package core

import (
	"errors"
	"testing"
)

func TestOneTimeMatcher_OccursOnlyInStartMonth(t *testing.T) {
	r := NewRecurrence(OneTime, NewDate(2024, 3, 10), 1)

	hits := 0
	for year := 2020; year <= 2028; year++ {
		for month := 1; month <= 12; month++ {
			ok, err := r.OccursInMonth(NewDate(year, month, 1))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				hits++
				if year != 2024 || month != 3 {
					t.Errorf("one-time entry matched %d-%d", year, month)
				}
			}
		}
	}
	if hits != 1 {
		t.Fatalf("one-time entry matched %d months, want exactly 1", hits)
	}
}

func TestMonthlyMatcher_EveryOneMatchesAllMonths(t *testing.T) {
	r := NewRecurrence(Monthly, NewDate(2022, 7, 19), 1)
	for year := 1999; year <= 2031; year++ {
		for month := 1; month <= 12; month++ {
			ok, err := r.OccursInMonth(NewDate(year, month, 28))
			if err != nil || !ok {
				t.Fatalf("monthly every=1 should match %d-%d (err=%v)", year, month, err)
			}
		}
	}
}

func TestAnnualMatcher_MatchesStartMonthInAnyYear(t *testing.T) {
	r := NewRecurrence(Annual, NewDate(2024, 6, 15), 1)
	for year := 2000; year <= 2040; year++ {
		for month := 1; month <= 12; month++ {
			ok, err := r.OccursInMonth(NewDate(year, month, 1))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != (month == 6) {
				t.Errorf("annual entry: %d-%d got %v", year, month, ok)
			}
		}
	}
}

func TestMonthlyMatcher_ModularInterval(t *testing.T) {
	tests := []struct {
		name   string
		start  Date
		every  int
		target Date
		want   bool
	}{
		{"every 3 from Feb matches Feb", NewDate(2024, 2, 5), 3, NewDate(2024, 2, 10), true},
		{"every 3 from Feb skips Mar", NewDate(2024, 2, 5), 3, NewDate(2024, 3, 10), false},
		{"every 3 from Feb skips Apr", NewDate(2024, 2, 5), 3, NewDate(2024, 4, 10), false},
		{"every 3 from Feb matches May", NewDate(2024, 2, 5), 3, NewDate(2024, 5, 10), true},
		{"every 3 from Feb matches Nov", NewDate(2024, 2, 5), 3, NewDate(2024, 11, 1), true},
		{"every 2 from Feb matches Apr", NewDate(2024, 2, 15), 2, NewDate(2024, 4, 1), true},
		{"every 2 from Feb skips Mar", NewDate(2024, 2, 15), 2, NewDate(2024, 3, 1), false},
		{"every 12 from Jan matches Jan", NewDate(2024, 1, 1), 12, NewDate(2030, 1, 1), true},
		{"every 12 from Dec matches Dec", NewDate(2024, 12, 1), 12, NewDate(2025, 12, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecurrence(Monthly, tt.start, tt.every)
			got, err := r.OccursInMonth(tt.target)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("OccursInMonth(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

// Matching ties month numbers only, so intervals that do not divide twelve
// drift against real elapsed time and schedules match before their start.
// These cases record that behavior as it is, not as it ideally would be.
func TestMonthlyMatcher_IgnoresYears(t *testing.T) {
	r := NewRecurrence(Monthly, NewDate(2024, 2, 1), 2)

	before, _ := r.OccursInMonth(NewDate(2019, 4, 1))
	if !before {
		t.Errorf("every=2 from Feb 2024 matches April 2019 under month-number matching")
	}

	// Five months after November 2024 is April 2025, yet 4 % 5 != 11 % 5.
	r = NewRecurrence(Monthly, NewDate(2024, 11, 1), 5)
	ok, _ := r.OccursInMonth(NewDate(2025, 4, 1))
	if ok {
		t.Errorf("every=5 from Nov does not match April under month-number matching")
	}
	ok, _ = r.OccursInMonth(NewDate(2025, 1, 1))
	if !ok {
		t.Errorf("every=5 from Nov matches January (1 %% 5 == 11 %% 5)")
	}
}

func TestOccursInMonth_InvalidRecurrence(t *testing.T) {
	cases := []Recurrence{
		{StartDate: NewDate(2024, 1, 1), Type: "FORTNIGHTLY", Every: 1},
		{StartDate: NewDate(2024, 1, 1), Type: "", Every: 1},
		{StartDate: NewDate(2024, 1, 1), Type: Monthly, Every: 0},
	}
	for _, r := range cases {
		if _, err := r.OccursInMonth(NewDate(2024, 1, 1)); !errors.Is(err, ErrInvalidRecurrence) {
			t.Errorf("%+v: expected ErrInvalidRecurrence, got %v", r, err)
		}
	}
}

func TestGetMonthMatcher(t *testing.T) {
	for _, typ := range []RecurrenceType{OneTime, Monthly, Annual} {
		m, err := GetMonthMatcher(typ)
		if err != nil || m == nil {
			t.Errorf("GetMonthMatcher(%s) = %v, %v", typ, m, err)
		}
	}
	if _, err := GetMonthMatcher("DAILY"); !errors.Is(err, ErrInvalidRecurrence) {
		t.Errorf("expected ErrInvalidRecurrence, got %v", err)
	}
}

func TestEndDateIsNotConsulted(t *testing.T) {
	r := NewRecurrence(Monthly, NewDate(2024, 1, 1), 1)
	r.EndDate = NewDate(2024, 6, 30)
	ok, err := r.OccursInMonth(NewDate(2025, 1, 1))
	if err != nil || !ok {
		t.Fatalf("end date is carried but not enforced: got %v, %v", ok, err)
	}
}
