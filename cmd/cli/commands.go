package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/valeriaulyamaeva/moneymine/internal/services/finance"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the database tables" }
func (*migrateCmd) Usage() string {
	return `migrate

  Creates every missing table and index. Running it again is harmless.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.db.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("schema up to date")
	return subcommands.ExitSuccess
}

type importCmd struct {
	account string
	user    string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "bulk import transactions into an account" }
func (*importCmd) Usage() string {
	return `import -user <user> -account <code> <file>

  Reads "date;description;amount" lines (amount with a decimal comma, e.g. -1.234,56)
  and records them as uncategorized transactions. Nothing is imported if any line is
  invalid.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account code (required)")
	f.StringVar(&c.user, "user", "", "owner user code (required)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.user == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -user, -account and exactly one file are required.")
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	txs, err := a.finance.BulkImport(ctx, c.user, c.account, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}
	account, err := a.finance.GetAccount(ctx, c.user, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("imported %d transactions, balance %s\n", len(txs), utils.FormatAmount(account.Balance, ""))
	return subcommands.ExitSuccess
}

type refreshCmd struct {
	account string
	user    string
	month   string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "recompute an account balance" }
func (*refreshCmd) Usage() string {
	return `refresh -user <user> -account <code> [-month YYYY-MM]

  Recomputes the account balance from its transactions and, with -month, the
  consolidated balance of that month.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account code (required)")
	f.StringVar(&c.user, "user", "", "owner user code (required)")
	f.StringVar(&c.month, "month", "", "month to consolidate, YYYY-MM")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user and -account are required.")
		return subcommands.ExitUsageError
	}
	var month *time.Time
	if c.month != "" {
		m, err := utils.ParseMonth(c.month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		month = &m
	}

	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	account, err := a.finance.RefreshAccount(ctx, c.user, c.account, month)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error refreshing: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s balance %s\n", account.Code, utils.FormatAmount(account.Balance, ""))
	if month != nil {
		rows, err := a.finance.ListConsolidations(ctx, c.user, []string{c.account}, month, month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		for _, row := range rows {
			fmt.Printf("%s %s\n", row.Month.Format(utils.MonthLayout), utils.FormatAmount(row.Balance, ""))
		}
	}
	return subcommands.ExitSuccess
}

type consolidateCmd struct {
	user      string
	portfolio string
}

func (*consolidateCmd) Name() string     { return "consolidate" }
func (*consolidateCmd) Synopsis() string { return "snapshot portfolios for today" }
func (*consolidateCmd) Usage() string {
	return `consolidate [-user <user> -portfolio <code>]

  Stores today's balance and amount invested of one portfolio, or of every portfolio
  when no -portfolio is given.
`
}

func (c *consolidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "owner user code, required with -portfolio")
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio code")
}

func (c *consolidateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio != "" && c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required with -portfolio.")
		return subcommands.ExitUsageError
	}

	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.portfolio == "" {
		done, err := a.investments.ConsolidateAll(ctx)
		fmt.Printf("consolidated %d portfolios\n", done)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	snapshot, err := a.investments.ConsolidatePortfolio(ctx, c.user, c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error consolidating: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s %s balance %s invested %s\n", snapshot.PortfolioCode, snapshot.Date.Format(utils.DateLayout),
		utils.FormatAmount(snapshot.Balance, ""), utils.FormatAmount(snapshot.AmountInvested, ""))
	return subcommands.ExitSuccess
}

type seedCmd struct {
	user         string
	seed         int64
	accounts     int
	transactions int
	investments  int
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "fill the database with demo data" }
func (*seedCmd) Usage() string {
	return `seed -user <user> [-seed N -accounts N -transactions N -investments N]

  Creates accounts, a category tree, a year of transactions and a portfolio with
  investments for the user. The same -seed produces the same data.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "owner user code (required)")
	f.Int64Var(&c.seed, "seed", time.Now().UnixNano(), "random seed")
	f.IntVar(&c.accounts, "accounts", 2, "number of accounts")
	f.IntVar(&c.transactions, "transactions", 100, "transactions per account")
	f.IntVar(&c.investments, "investments", 6, "number of investments")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required.")
		return subcommands.ExitUsageError
	}

	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	opts := seedOptions{
		accounts:     c.accounts,
		transactions: c.transactions,
		investments:  c.investments,
		to:           utils.Today(),
	}
	summary, err := seed(ctx, a.finance, a.investments, utils.NewGenerator(c.seed), c.user, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("seeded %d accounts, %d categories, %d transactions, %d investments\n",
		summary.accounts, summary.categories, summary.transactions, summary.investments)
	return subcommands.ExitSuccess
}

type seedOptions struct {
	accounts     int
	transactions int
	investments  int
	to           time.Time
}

type seedSummary struct {
	accounts     int
	categories   int
	transactions int
	investments  int
}

// seed goes through the services so every balance, month and position is derived the
// same way as for user-entered data.
func seed(ctx context.Context, fin *finance.Service, inv *investment.Service, g *utils.Generator, userCode string, opts seedOptions) (seedSummary, error) {
	var summary seedSummary
	from := opts.to.AddDate(-1, 0, 0)

	var categoryCodes []string
	for _, group := range g.Categories(5, 3) {
		root, err := fin.CreateCategory(ctx, userCode, &group[0])
		if err != nil {
			return summary, err
		}
		categoryCodes = append(categoryCodes, root.Code)
		for i := 1; i < len(group); i++ {
			group[i].ParentCategoryCode = &root.Code
			child, err := fin.CreateCategory(ctx, userCode, &group[i])
			if err != nil {
				return summary, err
			}
			categoryCodes = append(categoryCodes, child.Code)
		}
	}
	summary.categories = len(categoryCodes)

	for _, account := range g.Accounts(opts.accounts) {
		created, err := fin.CreateAccount(ctx, userCode, &account)
		if err != nil {
			return summary, err
		}
		summary.accounts++
		for _, tx := range g.Transactions(created.Code, categoryCodes, opts.transactions, from, opts.to) {
			if _, err := fin.CreateTransaction(ctx, userCode, &tx); err != nil {
				return summary, err
			}
			summary.transactions++
		}
	}

	if opts.investments == 0 {
		return summary, nil
	}
	portfolio, err := inv.CreatePortfolio(ctx, userCode, &models.Portfolio{Name: "Demo portfolio"})
	if err != nil {
		return summary, err
	}
	for _, opening := range g.Investments(opts.investments, from, opts.to) {
		created, err := inv.CreateInvestment(ctx, userCode, portfolio.Code, &opening)
		if err != nil {
			return summary, err
		}
		next := g.FollowUp(*created, opts.to)
		if _, _, err := inv.CreateInvestmentTransaction(ctx, userCode, portfolio.Code, created.Code, &next); err != nil {
			return summary, err
		}
		summary.investments++
	}
	return summary, nil
}
