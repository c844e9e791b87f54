package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/config"
	"github.com/valeriaulyamaeva/moneymine/internal/database"
	"github.com/valeriaulyamaeva/moneymine/internal/handlers"
	"github.com/valeriaulyamaeva/moneymine/internal/logger"
	"github.com/valeriaulyamaeva/moneymine/internal/routes"
	"github.com/valeriaulyamaeva/moneymine/internal/services/finance"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

// ScheduleConsolidation snapshots every portfolio on the configured cron schedule. An
// empty schedule disables the job and returns a nil scheduler.
func ScheduleConsolidation(schedule string, svc *investment.Service, log zerolog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		log.Info().Msg("portfolio consolidation job disabled")
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		started := time.Now()
		done, err := svc.ConsolidateAll(ctx)
		if err != nil {
			log.Error().Err(err).Int("consolidated", done).Msg("portfolio consolidation finished with errors")
			return
		}
		log.Info().Int("consolidated", done).Dur("elapsed", time.Since(started)).Msg("portfolio consolidation finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid consolidation schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

func main() {
	configPath := flag.String("config", "moneymine.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.ConnString(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	quotes := utils.NewQuoteClient(cfg.Quotes.Token,
		utils.WithQuotesBaseURL(cfg.Quotes.BaseURL),
		utils.WithQuotesRateLimit(cfg.Quotes.RateLimit),
		utils.WithQuotesTimeout(cfg.Quotes.GetTimeout()),
		utils.WithQuotesCacheTTL(cfg.Quotes.GetCacheTTL()),
		utils.WithQuotesLogger(log.With().Str("component", "quotes").Logger()),
	)

	financeSvc := finance.NewService(db, log.With().Str("component", "finance").Logger())
	investmentSvc := investment.NewService(db, quotes, log.With().Str("component", "investment").Logger())

	scheduler, err := ScheduleConsolidation(cfg.Consolidation.Schedule, investmentSvc, log.With().Str("component", "cron").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(financeSvc, investmentSvc, log.With().Str("component", "http").Logger())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           routes.SetupRouter(h, cfg.Server.AllowedOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
