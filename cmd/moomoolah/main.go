package main

import (
	"os"

	"github.com/alecthomas/kong"

	"moomoolah/internal/cli"
)

// CLI lists the commands available.
type CLI struct {
	Forecast   forecastCmd   `cmd:"" help:"Show income, expenses and balance for upcoming months."`
	History    historyCmd    `cmd:"" help:"Show income, expenses and balance for previous months."`
	Month      monthCmd      `cmd:"" help:"Show the entries and category totals of one month."`
	Entries    entriesCmd    `cmd:"" help:"List entries with the numbers used by update and remove."`
	Add        addCmd        `cmd:"" help:"Add an income or expense entry."`
	Update     updateCmd     `cmd:"" help:"Change an existing entry."`
	Remove     removeCmd     `cmd:"" help:"Remove an entry."`
	Categories categoriesCmd `cmd:"" help:"List or register categories."`
	Currency   currencyCmd   `cmd:"" help:"Show or change the display currency."`
	Export     exportCmd     `cmd:"" help:"Publish forecasts to the configured export sink."`
}

func main() {
	cli.LoadEnvFile()

	var commands CLI
	kctx := kong.Parse(&commands,
		kong.Name("moomoolah"),
		kong.Description("Track recurring income and expenses and forecast monthly balances."),
		kong.UsageOnError())

	a, err := newApp(os.Stdout)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(a)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	kctx.FatalIfErrorf(err)
}
