package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
)

// StateFileMode restricts the state file to its owner.
const StateFileMode os.FileMode = 0o600

type fileRecurrence struct {
	StartDate core.Date           `json:"start_date"`
	Type      core.RecurrenceType `json:"type"`
	Every     *int                `json:"every,omitempty"`
	EndDate   core.Date           `json:"end_date"`
}

type fileEntry struct {
	Amount      decimal.NullDecimal `json:"amount"`
	Description *string             `json:"description"`
	Type        core.EntryType      `json:"type"`
	Category    *string             `json:"category"`
	Recurrence  fileRecurrence      `json:"recurrence"`
}

// missingFields lists the required fields that were absent or null.
func (fe fileEntry) missingFields() []string {
	var missing []string
	if !fe.Amount.Valid {
		missing = append(missing, "amount")
	}
	if fe.Description == nil {
		missing = append(missing, "description")
	}
	if fe.Category == nil {
		missing = append(missing, "category")
	}
	return missing
}

// stateFile is the on-disk layout. currency_code and categories are optional;
// files written before they existed load with the defaults.
type stateFile struct {
	AllEntries   map[core.EntryType][]fileEntry `json:"all_entries"`
	Categories   map[core.EntryType][]string    `json:"categories,omitempty"`
	CurrencyCode *string                        `json:"currency_code,omitempty"`
}

func (s *FinancialState) MarshalJSON() ([]byte, error) {
	out := stateFile{
		AllEntries: make(map[core.EntryType][]fileEntry, 2),
		Categories: make(map[core.EntryType][]string, 2),
	}
	for _, typ := range core.EntryTypes() {
		list := make([]fileEntry, 0, len(s.entries[typ]))
		for _, e := range s.entries[typ] {
			every := e.Recurrence.Every
			description, category := e.Description, e.Category
			list = append(list, fileEntry{
				Amount:      decimal.NewNullDecimal(e.Amount),
				Description: &description,
				Type:        e.Type,
				Category:    &category,
				Recurrence: fileRecurrence{
					StartDate: e.Recurrence.StartDate,
					Type:      e.Recurrence.Type,
					Every:     &every,
					EndDate:   e.Recurrence.EndDate,
				},
			})
		}
		out.AllEntries[typ] = list
		out.Categories[typ] = s.Categories(typ)
	}
	code := s.currencyCode
	out.CurrencyCode = &code
	return json.Marshal(out)
}

// UnmarshalJSON replaces the receiver's content with the decoded state. The
// receiver's clock is kept when set.
func (s *FinancialState) UnmarshalJSON(data []byte) error {
	var opts []Option
	if s.now != nil {
		opts = append(opts, WithClock(s.now))
	}
	decoded, err := Decode(data, opts...)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// Decode builds a state from the JSON file format. Structural problems,
// unknown enum values, bad dates and unknown currencies yield ErrMalformedState.
func Decode(data []byte, opts ...Option) (*FinancialState, error) {
	var raw stateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	if raw.AllEntries == nil {
		return nil, fmt.Errorf("%w: missing all_entries", ErrMalformedState)
	}

	s := New(opts...)
	for typ, list := range raw.AllEntries {
		if !typ.IsValid() {
			return nil, fmt.Errorf("%w: unknown entry type %q", ErrMalformedState, typ)
		}
		for i, fe := range list {
			if fe.Type != typ {
				return nil, fmt.Errorf("%w: %s entry %d has type %q", ErrMalformedState, typ, i, fe.Type)
			}
			if missing := fe.missingFields(); len(missing) > 0 {
				return nil, fmt.Errorf("%w: %s entry %d missing %s", ErrMalformedState, typ, i, strings.Join(missing, ", "))
			}
			every := 1
			if fe.Recurrence.Every != nil {
				every = *fe.Recurrence.Every
			}
			entry := core.FinancialEntry{
				Amount:      fe.Amount.Decimal,
				Description: *fe.Description,
				Type:        fe.Type,
				Category:    *fe.Category,
				Recurrence: core.Recurrence{
					StartDate: fe.Recurrence.StartDate,
					Type:      fe.Recurrence.Type,
					Every:     every,
					EndDate:   fe.Recurrence.EndDate,
				},
			}
			if err := s.AddEntry(entry); err != nil {
				return nil, fmt.Errorf("%w: %s entry %d: %w", ErrMalformedState, typ, i, err)
			}
		}
	}
	for typ, names := range raw.Categories {
		for _, name := range names {
			if err := s.AddCategory(typ, name); err != nil {
				return nil, fmt.Errorf("%w: categories: %w", ErrMalformedState, err)
			}
		}
	}

	if raw.CurrencyCode != nil {
		if err := s.SetCurrencyCode(*raw.CurrencyCode); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
		}
	}
	return s, nil
}

// FromJSONFile loads a state saved by ToJSONFile. A missing currency_code
// defaults to EUR.
func FromJSONFile(path string, opts ...Option) (*FinancialState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFileAccess, path, err)
	}
	s, err := Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// ToJSONFile writes the whole state to path with mode 0600. The data goes to a
// temporary file created owner-only in the same directory and is renamed over
// path, so the file is never readable by others and never half-written.
func (s *FinancialState) ToJSONFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'), StateFileMode)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", ErrFileAccess, dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod %s: %w", ErrFileAccess, tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrFileAccess, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrFileAccess, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrFileAccess, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrFileAccess, path, err)
	}
	tmpPath = ""
	return nil
}
