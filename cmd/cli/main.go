package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/config"
	"github.com/valeriaulyamaeva/moneymine/internal/database"
	"github.com/valeriaulyamaeva/moneymine/internal/logger"
	"github.com/valeriaulyamaeva/moneymine/internal/services/finance"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

var configPath = flag.String("config", "moneymine.toml", "path to the TOML config file")

// app holds what every command needs once the database is open.
type app struct {
	db          *database.DB
	log         zerolog.Logger
	finance     *finance.Service
	investments *investment.Service
}

func open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Logging.Level)

	db, err := database.Connect(ctx, cfg.Database.ConnString(), cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	quotes := utils.NewQuoteClient(cfg.Quotes.Token,
		utils.WithQuotesBaseURL(cfg.Quotes.BaseURL),
		utils.WithQuotesRateLimit(cfg.Quotes.RateLimit),
		utils.WithQuotesTimeout(cfg.Quotes.GetTimeout()),
		utils.WithQuotesLogger(log),
	)
	return &app{
		db:          db,
		log:         log,
		finance:     finance.NewService(db, log),
		investments: investment.NewService(db, quotes, log),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&seedCmd{}, "database")
	commander.Register(&importCmd{}, "accounts")
	commander.Register(&refreshCmd{}, "accounts")
	commander.Register(&consolidateCmd{}, "portfolios")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
