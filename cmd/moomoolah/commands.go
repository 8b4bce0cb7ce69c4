package main

import (
	"fmt"
	"strings"

	"moomoolah/internal/core"
	"moomoolah/internal/log"
	"moomoolah/internal/services"
)

type forecastCmd struct {
	Months int    `short:"n" help:"Number of months to show (default FORECAST_MONTHS)."`
	From   string `help:"First month, YYYY-MM. Defaults to the current month."`
}

func (c *forecastCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	months := c.Months
	if months == 0 {
		months = a.cfg.ForecastMonths
	}
	start, err := parseMonth(c.From, s.CurrentMonth())
	if err != nil {
		return err
	}
	series, err := s.ForecastRange(start, months)
	if err != nil {
		return err
	}
	return renderSeries(a.out, s, series)
}

type historyCmd struct {
	Months int `short:"n" help:"Number of past months to show (default HISTORY_MONTHS)."`
}

func (c *historyCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	months := c.Months
	if months == 0 {
		months = a.cfg.HistoryMonths
	}
	series, err := s.ForecastForPreviousNMonths(months)
	if err != nil {
		return err
	}
	return renderSeries(a.out, s, series)
}

type monthCmd struct {
	Month string `arg:"" optional:"" help:"Month to show, YYYY-MM. Defaults to the current month."`
}

func (c *monthCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	month, err := parseMonth(c.Month, s.CurrentMonth())
	if err != nil {
		return err
	}
	entries, err := s.EntriesForMonth(month)
	if err != nil {
		return err
	}
	f, err := s.MonthlyForecast(month)
	if err != nil {
		return err
	}
	return renderMonth(a.out, s, f, entries)
}

type entriesCmd struct {
	Type string `enum:"income,expense,all" default:"all" help:"Which entries to list: income, expense or all."`
}

func (c *entriesCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	types := core.EntryTypes()
	if c.Type != "all" {
		typ, err := parseEntryType(c.Type)
		if err != nil {
			return err
		}
		types = []core.EntryType{typ}
	}
	return renderEntries(a.out, s, types)
}

type addCmd struct {
	Type        string `arg:"" enum:"income,expense" help:"Entry type: income or expense."`
	Amount      string `arg:"" help:"Amount, e.g. 1200.50 or €1,200.50."`
	Description string `arg:"" help:"What the entry is for."`
	Category    string `short:"c" help:"Category."`
	Recurrence  string `short:"r" enum:"one-time,monthly,annual" default:"monthly" help:"How often the entry repeats: one-time, monthly or annual."`
	Start       string `short:"s" help:"Start date, YYYY-MM-DD. Defaults to today."`
	Every       int    `short:"e" default:"1" help:"Interval in months for monthly entries."`
	End         string `help:"Optional end date, YYYY-MM-DD. Recorded for reference."`
}

func (c *addCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	typ, err := parseEntryType(c.Type)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c.Amount, s.CurrencyCode())
	if err != nil {
		return err
	}
	recurrence, err := c.recurrence(a.today())
	if err != nil {
		return err
	}

	entry := core.FinancialEntry{
		Amount:      amount,
		Description: c.Description,
		Type:        typ,
		Category:    strings.TrimSpace(c.Category),
		Recurrence:  recurrence,
	}
	if err := a.entries.AddEntry(a.ctx, entry); err != nil {
		return err
	}

	log.NewStructuredLogger(a.logger).LogEntryChanged(a.ctx, log.OpAdd, string(typ), entry.Description, entry.Category, amount.String())
	fmt.Fprintf(a.out, "Added %s %q (%s, %s)\n", strings.ToLower(string(typ)), entry.Description, formatAmount(s, amount), recurrence.Description())
	return nil
}

func (c *addCmd) recurrence(today core.Date) (core.Recurrence, error) {
	typ, err := parseRecurrenceType(c.Recurrence)
	if err != nil {
		return core.Recurrence{}, err
	}
	start := today
	if c.Start != "" {
		if start, err = core.ParseDate(c.Start); err != nil {
			return core.Recurrence{}, err
		}
	}
	r := core.NewRecurrence(typ, start, c.Every)
	if c.End != "" {
		if r.EndDate, err = core.ParseDate(c.End); err != nil {
			return core.Recurrence{}, err
		}
		if r.EndDate.Before(r.StartDate.Time) {
			return core.Recurrence{}, fmt.Errorf("end date %s is before start date %s", r.EndDate, r.StartDate)
		}
	}
	return r, nil
}

type updateCmd struct {
	Type        string `arg:"" enum:"income,expense" help:"Type of the entry to change."`
	Number      int    `arg:"" help:"Entry number as shown by the entries command."`
	Amount      string `help:"New amount."`
	Description string `help:"New description."`
	Category    string `short:"c" help:"New category."`
	Recurrence  string `short:"r" help:"New recurrence: one-time, monthly or annual."`
	Start       string `short:"s" help:"New start date, YYYY-MM-DD."`
	Every       int    `short:"e" help:"New interval in months."`
	MoveTo      string `name:"move-to" help:"Move the entry to the other type: income or expense."`
}

func (c *updateCmd) Run(a *app) error {
	s, err := a.state()
	if err != nil {
		return err
	}
	typ, err := parseEntryType(c.Type)
	if err != nil {
		return err
	}
	list := s.Entries(typ)
	index := c.Number - 1
	if index < 0 || index >= len(list) {
		return fmt.Errorf("no %s entry number %d", strings.ToLower(string(typ)), c.Number)
	}

	entry := list[index]
	if c.Amount != "" {
		if entry.Amount, err = parseAmount(c.Amount, s.CurrencyCode()); err != nil {
			return err
		}
	}
	if c.Description != "" {
		entry.Description = c.Description
	}
	if c.Category != "" {
		entry.Category = strings.TrimSpace(c.Category)
	}
	if c.MoveTo != "" {
		if entry.Type, err = parseEntryType(c.MoveTo); err != nil {
			return err
		}
	}

	recurrenceType, start, every := entry.Recurrence.Type, entry.Recurrence.StartDate, entry.Recurrence.Every
	if c.Recurrence != "" {
		if recurrenceType, err = parseRecurrenceType(c.Recurrence); err != nil {
			return err
		}
	}
	if c.Start != "" {
		if start, err = core.ParseDate(c.Start); err != nil {
			return err
		}
	}
	if c.Every != 0 {
		every = c.Every
	}
	end := entry.Recurrence.EndDate
	entry.Recurrence = core.NewRecurrence(recurrenceType, start, every)
	entry.Recurrence.EndDate = end

	if err := a.entries.UpdateEntry(a.ctx, typ, index, entry); err != nil {
		return err
	}
	log.NewStructuredLogger(a.logger).LogEntryChanged(a.ctx, log.OpUpdate, string(entry.Type), entry.Description, entry.Category, entry.Amount.String())
	fmt.Fprintf(a.out, "Updated %s %q\n", strings.ToLower(string(entry.Type)), entry.Description)
	return nil
}

type removeCmd struct {
	Type   string `arg:"" enum:"income,expense" help:"Type of the entry to remove."`
	Number int    `arg:"" help:"Entry number as shown by the entries command."`
}

func (c *removeCmd) Run(a *app) error {
	typ, err := parseEntryType(c.Type)
	if err != nil {
		return err
	}
	removed, err := a.entries.RemoveEntryAt(a.ctx, typ, c.Number-1)
	if err != nil {
		return err
	}
	log.NewStructuredLogger(a.logger).LogEntryChanged(a.ctx, log.OpRemove, string(typ), removed.Description, removed.Category, removed.Amount.String())
	fmt.Fprintf(a.out, "Removed %s %q\n", strings.ToLower(string(typ)), removed.Description)
	return nil
}

type categoriesCmd struct {
	Type string `enum:"income,expense,all" default:"all" help:"Which categories: income, expense or all."`
	Add  string `help:"Register a category for --type without adding an entry."`
}

func (c *categoriesCmd) Run(a *app) error {
	if c.Add != "" {
		if c.Type == "all" {
			return fmt.Errorf("--add needs --type income or --type expense")
		}
		typ, err := parseEntryType(c.Type)
		if err != nil {
			return err
		}
		if err := a.entries.AddCategory(a.ctx, typ, c.Add); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %s category %q\n", strings.ToLower(string(typ)), strings.TrimSpace(c.Add))
		return nil
	}

	s, err := a.state()
	if err != nil {
		return err
	}
	for _, typ := range core.EntryTypes() {
		if c.Type != "all" && !strings.EqualFold(c.Type, string(typ)) {
			continue
		}
		fmt.Fprintf(a.out, "%s: %s\n", titleType(typ), strings.Join(s.Categories(typ), ", "))
	}
	return nil
}

type currencyCmd struct {
	Code string `arg:"" optional:"" help:"Currency code to switch to."`
}

func (c *currencyCmd) Run(a *app) error {
	if c.Code == "" {
		s, err := a.state()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Currency: %s\nAvailable: %s\n", s.CurrencyCode(), strings.Join(core.CurrencyCodes(), ", "))
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	if err := a.entries.SetCurrency(a.ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Currency set to %s\n", code)
	return nil
}

type exportCmd struct {
	Months int    `short:"n" help:"Number of months to export (default FORECAST_MONTHS)."`
	From   string `help:"First month, YYYY-MM. Defaults to the current month."`
}

func (c *exportCmd) Run(a *app) error {
	publisher, err := a.publisher()
	if err != nil {
		return err
	}
	exporter := services.NewForecastExporter(a.store, publisher, a.exporterConfig())

	s, err := a.state()
	if err != nil {
		return err
	}
	months := c.Months
	if months == 0 {
		months = a.cfg.ForecastMonths
	}
	start, err := parseMonth(c.From, s.CurrentMonth())
	if err != nil {
		return err
	}

	result, err := exporter.ExportState(a.ctx, s, start, months)
	if err != nil {
		return err
	}
	target := "sink " + a.cfg.ExportSink
	if a.amqp != nil {
		target = "queue " + a.cfg.AMQPQueue
	}
	fmt.Fprintf(a.out, "Exported %d months (%s to %s) in %s to %s\n",
		len(result.Keys), result.Keys[0], result.Keys[len(result.Keys)-1], result.Currency, target)
	if a.amqp == nil && a.cfg.ExportSink == "memory" {
		fmt.Fprintln(a.out, "Note: the memory sink is discarded when this command exits; set EXPORT_SINK or AMQP_URL to keep the export.")
	}
	return nil
}
