// Package investment runs portfolio and position mutations. Every change to an
// investment's transaction log recomputes its position in the same unit of work.
package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/engine"
	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

type Service struct {
	tx     interfaces.TxManager
	prices interfaces.PriceSource
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the service. prices may be nil, in which case UpdatePrices fails.
func NewService(tx interfaces.TxManager, prices interfaces.PriceSource, logger zerolog.Logger) *Service {
	return &Service{tx: tx, prices: prices, logger: logger, now: time.Now}
}

func (s *Service) CreatePortfolio(ctx context.Context, userCode string, portfolio *models.Portfolio) (*models.Portfolio, error) {
	if strings.TrimSpace(portfolio.Name) == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", models.ErrInvalidInput)
	}
	portfolio.UserCode = userCode
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		return st.CreatePortfolio(ctx, portfolio)
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

func (s *Service) GetPortfolio(ctx context.Context, userCode, code string) (*models.Portfolio, error) {
	return s.tx.Reader().GetPortfolio(ctx, userCode, code)
}

func (s *Service) ListPortfolios(ctx context.Context, userCode string) ([]models.Portfolio, error) {
	return s.tx.Reader().ListPortfolios(ctx, userCode)
}

func (s *Service) UpdatePortfolio(ctx context.Context, userCode, code string, portfolio *models.Portfolio) (*models.Portfolio, error) {
	if portfolio.Code != "" && portfolio.Code != code {
		return nil, models.NotPermitted("portfolio code cannot be changed")
	}
	portfolio.Code = code
	portfolio.UserCode = userCode
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetPortfolio(ctx, userCode, code); err != nil {
			return err
		}
		return st.UpdatePortfolio(ctx, portfolio)
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

func (s *Service) DeletePortfolio(ctx context.Context, userCode, code string) error {
	return s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetPortfolio(ctx, userCode, code); err != nil {
			return err
		}
		return st.DeletePortfolio(ctx, code)
	})
}

// investmentIn loads an investment after checking it sits in the user's portfolio.
func investmentIn(ctx context.Context, st interfaces.Store, userCode, portfolioCode, code string) (*models.Investment, error) {
	if _, err := st.GetPortfolio(ctx, userCode, portfolioCode); err != nil {
		return nil, err
	}
	inv, err := st.GetInvestment(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv.PortfolioCode != portfolioCode {
		return nil, models.NotFound("investment", code)
	}
	return inv, nil
}

// CreateInvestment opens a position and records its opening transaction: a BUY of
// Quantity at PurchasePrice, or a DEPOSIT of PurchasePrice for fixed income.
func (s *Service) CreateInvestment(ctx context.Context, userCode, portfolioCode string, inv *models.Investment) (*models.Investment, error) {
	asset, err := models.ParseAssetType(string(inv.AssetType))
	if err != nil {
		return nil, err
	}
	if inv.Quantity < 0 || inv.PurchasePrice < 0 {
		return nil, fmt.Errorf("%w: quantity and purchase price cannot be negative", models.ErrInvalidInput)
	}
	inv.AssetType = asset
	inv.PortfolioCode = portfolioCode
	inv.Ticker = strings.ToUpper(strings.TrimSpace(inv.Ticker))
	if inv.PurchaseDate.IsZero() {
		inv.PurchaseDate = s.now()
	}
	inv.PurchaseDate = utils.Day(inv.PurchaseDate)

	opening := models.InvestmentTransaction{
		Type:     models.InvestmentBuy,
		Date:     inv.PurchaseDate,
		Quantity: inv.Quantity,
		Price:    inv.PurchasePrice,
	}
	if asset == models.AssetFixedIncome {
		opening.Type = models.InvestmentDeposit
	}

	var created *models.Investment
	err = s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetPortfolio(ctx, userCode, portfolioCode); err != nil {
			return err
		}
		if err := st.CreateInvestment(ctx, inv); err != nil {
			return err
		}
		opening.InvestmentCode = inv.Code
		if err := st.CreateInvestmentTransaction(ctx, &opening); err != nil {
			return err
		}
		created, err = recompute(ctx, st, inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("investment_code", created.Code).Str("ticker", created.Ticker).Str("asset_type", string(asset)).Msg("investment created")
	return created, nil
}

func recompute(ctx context.Context, st interfaces.Store, inv *models.Investment) (*models.Investment, error) {
	txs, err := st.ListInvestmentTransactions(ctx, inv.Code)
	if err != nil {
		return nil, err
	}
	return engine.NewPositionEngine(st).Recompute(ctx, inv, txs)
}

func (s *Service) GetInvestment(ctx context.Context, userCode, portfolioCode, code string) (*models.Investment, error) {
	return investmentIn(ctx, s.tx.Reader(), userCode, portfolioCode, code)
}

func (s *Service) ListInvestments(ctx context.Context, userCode, portfolioCode, orderBy string) ([]models.Investment, error) {
	reader := s.tx.Reader()
	if _, err := reader.GetPortfolio(ctx, userCode, portfolioCode); err != nil {
		return nil, err
	}
	invs, err := reader.ListInvestments(ctx, portfolioCode, orderBy)
	if err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []models.Investment{}
	}
	return invs, nil
}

// UpdateInvestment changes the ticker, purchase date and current price. Quantity and
// purchase price stay derived from the transaction log.
func (s *Service) UpdateInvestment(ctx context.Context, userCode, portfolioCode, code string, changes *models.Investment) (*models.Investment, error) {
	if changes.Code != "" && changes.Code != code {
		return nil, models.NotPermitted("investment code cannot be changed")
	}

	var updated *models.Investment
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		inv, err := investmentIn(ctx, st, userCode, portfolioCode, code)
		if err != nil {
			return err
		}
		if changes.AssetType != "" && changes.AssetType != inv.AssetType {
			return models.NotPermitted("asset type of %s cannot be changed", code)
		}
		if err := st.LockInvestment(ctx, code); err != nil {
			return err
		}
		if t := strings.TrimSpace(changes.Ticker); t != "" {
			inv.Ticker = strings.ToUpper(t)
		}
		if !changes.PurchaseDate.IsZero() {
			inv.PurchaseDate = utils.Day(changes.PurchaseDate)
		}
		if changes.CurrentAveragePrice != nil {
			p := *changes.CurrentAveragePrice
			inv.CurrentAveragePrice = &p
		}
		if err := st.UpdateInvestment(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteInvestment(ctx context.Context, userCode, portfolioCode, code string) error {
	return s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := investmentIn(ctx, st, userCode, portfolioCode, code); err != nil {
			return err
		}
		return st.DeleteInvestment(ctx, code)
	})
}

func validateInvestmentTransaction(tx *models.InvestmentTransaction) error {
	t, err := models.ParseInvestmentTransactionType(string(tx.Type))
	if err != nil {
		return err
	}
	if tx.Quantity < 0 || tx.Price < 0 {
		return fmt.Errorf("%w: quantity and price cannot be negative", models.ErrInvalidInput)
	}
	tx.Type = t
	tx.Date = utils.Day(tx.Date)
	return nil
}

// CreateInvestmentTransaction appends tx to the log and recomputes the position. A
// transaction the position rejects is not kept.
func (s *Service) CreateInvestmentTransaction(ctx context.Context, userCode, portfolioCode, investmentCode string, tx *models.InvestmentTransaction) (*models.InvestmentTransaction, *models.Investment, error) {
	if err := validateInvestmentTransaction(tx); err != nil {
		return nil, nil, err
	}
	tx.InvestmentCode = investmentCode

	var position *models.Investment
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := investmentIn(ctx, st, userCode, portfolioCode, investmentCode); err != nil {
			return err
		}
		if err := st.LockInvestment(ctx, investmentCode); err != nil {
			return err
		}
		inv, err := st.GetInvestment(ctx, investmentCode)
		if err != nil {
			return err
		}
		if err := st.CreateInvestmentTransaction(ctx, tx); err != nil {
			return err
		}
		position, err = recompute(ctx, st, inv)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("investment_code", investmentCode).Str("type", string(tx.Type)).Msg("investment transaction rejected")
		return nil, nil, err
	}
	return tx, position, nil
}

func (s *Service) ListInvestmentTransactions(ctx context.Context, userCode, portfolioCode, investmentCode string) ([]models.InvestmentTransaction, error) {
	reader := s.tx.Reader()
	if _, err := investmentIn(ctx, reader, userCode, portfolioCode, investmentCode); err != nil {
		return nil, err
	}
	txs, err := reader.ListInvestmentTransactions(ctx, investmentCode)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.InvestmentTransaction{}
	}
	return txs, nil
}

func (s *Service) UpdateInvestmentTransaction(ctx context.Context, userCode, portfolioCode, investmentCode, code string, tx *models.InvestmentTransaction) (*models.InvestmentTransaction, *models.Investment, error) {
	if tx.Code != "" && tx.Code != code {
		return nil, nil, models.NotPermitted("transaction code cannot be changed")
	}
	if err := validateInvestmentTransaction(tx); err != nil {
		return nil, nil, err
	}
	tx.Code = code

	var position *models.Investment
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		inv, err := investmentIn(ctx, st, userCode, portfolioCode, investmentCode)
		if err != nil {
			return err
		}
		old, err := st.GetInvestmentTransaction(ctx, code)
		if err != nil {
			return err
		}
		if old.InvestmentCode != investmentCode {
			return models.NotFound("investment transaction", code)
		}
		if tx.Date.IsZero() {
			tx.Date = old.Date
		}
		if err := st.LockInvestment(ctx, investmentCode); err != nil {
			return err
		}
		if err := st.UpdateInvestmentTransaction(ctx, tx); err != nil {
			return err
		}
		position, err = recompute(ctx, st, inv)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return tx, position, nil
}

func (s *Service) DeleteInvestmentTransaction(ctx context.Context, userCode, portfolioCode, investmentCode, code string) (*models.Investment, error) {
	var position *models.Investment
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		inv, err := investmentIn(ctx, st, userCode, portfolioCode, investmentCode)
		if err != nil {
			return err
		}
		old, err := st.GetInvestmentTransaction(ctx, code)
		if err != nil {
			return err
		}
		if old.InvestmentCode != investmentCode {
			return models.NotFound("investment transaction", code)
		}
		if err := st.LockInvestment(ctx, investmentCode); err != nil {
			return err
		}
		if err := st.DeleteInvestmentTransaction(ctx, code); err != nil {
			return err
		}
		position, err = recompute(ctx, st, inv)
		return err
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

func (s *Service) Overview(ctx context.Context, userCode, portfolioCode string) (*models.PortfolioOverview, error) {
	reader := s.tx.Reader()
	portfolio, err := reader.GetPortfolio(ctx, userCode, portfolioCode)
	if err != nil {
		return nil, err
	}
	invs, err := reader.ListInvestments(ctx, portfolioCode, "")
	if err != nil {
		return nil, err
	}
	overview := engine.Overview(*portfolio, invs)
	return &overview, nil
}

func (s *Service) Diversification(ctx context.Context, userCode, portfolioCode string) ([]models.AssetAllocation, error) {
	invs, err := s.ListInvestments(ctx, userCode, portfolioCode, "")
	if err != nil {
		return nil, err
	}
	return engine.Diversification(invs), nil
}

// UpdatePrices writes the market price of every stock and REIT of the portfolio as
// its current price. Prices are fetched before the unit of work starts.
func (s *Service) UpdatePrices(ctx context.Context, userCode, portfolioCode string) ([]models.Investment, error) {
	if s.prices == nil {
		return nil, fmt.Errorf("%w: no price source configured", models.ErrUnexpected)
	}
	invs, err := s.ListInvestments(ctx, userCode, portfolioCode, "")
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]float64)
	for _, inv := range invs {
		if !inv.AssetType.Tradable() {
			continue
		}
		if _, ok := quotes[inv.Ticker]; ok {
			continue
		}
		price, err := s.prices.CurrentPrice(ctx, inv.Ticker)
		if err != nil {
			return nil, fmt.Errorf("%w: price of %s: %w", models.ErrUnexpected, inv.Ticker, err)
		}
		quotes[inv.Ticker] = price
	}

	var updated []models.Investment
	err = s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		updated = updated[:0]
		for _, inv := range invs {
			price, ok := quotes[inv.Ticker]
			if !ok || !inv.AssetType.Tradable() {
				continue
			}
			if err := st.LockInvestment(ctx, inv.Code); err != nil {
				return err
			}
			current, err := st.GetInvestment(ctx, inv.Code)
			if err != nil {
				return err
			}
			current.CurrentAveragePrice = &price
			if err := st.UpdateInvestment(ctx, current); err != nil {
				return err
			}
			updated = append(updated, *current)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("portfolio_code", portfolioCode).Int("updated", len(updated)).Msg("prices updated")
	return updated, nil
}

// ConsolidatePortfolio stores today's snapshot of the portfolio, replacing an earlier
// one from the same day.
func (s *Service) ConsolidatePortfolio(ctx context.Context, userCode, portfolioCode string) (*models.ConsolidatedPortfolio, error) {
	var snapshot *models.ConsolidatedPortfolio
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		portfolio, err := st.GetPortfolio(ctx, userCode, portfolioCode)
		if err != nil {
			return err
		}
		invs, err := st.ListInvestments(ctx, portfolioCode, "")
		if err != nil {
			return err
		}
		overview := engine.Overview(*portfolio, invs)

		snapshot, err = engine.NewConsolidations(nil, st).CreateOrUpdate(ctx, &models.ConsolidatedPortfolio{
			PortfolioCode:  portfolioCode,
			Date:           utils.Day(s.now()),
			Balance:        overview.CurrentBalance,
			AmountInvested: overview.AmountInvested,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ConsolidateAll snapshots every portfolio. It keeps going past failures and returns
// them joined.
func (s *Service) ConsolidateAll(ctx context.Context) (int, error) {
	portfolios, err := s.tx.Reader().ListAllPortfolios(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	done := 0
	for _, p := range portfolios {
		if _, err := s.ConsolidatePortfolio(ctx, p.UserCode, p.Code); err != nil {
			s.logger.Error().Err(err).Str("portfolio_code", p.Code).Msg("consolidation failed")
			errs = append(errs, fmt.Errorf("portfolio %s: %w", p.Code, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

func (s *Service) ListPortfolioConsolidations(ctx context.Context, userCode, portfolioCode string, start, end *time.Time) ([]models.ConsolidatedPortfolio, error) {
	reader := s.tx.Reader()
	if _, err := reader.GetPortfolio(ctx, userCode, portfolioCode); err != nil {
		return nil, err
	}
	if start != nil {
		d := utils.Day(*start)
		start = &d
	}
	if end != nil {
		d := utils.Day(*end)
		end = &d
	}
	rows, err := engine.NewConsolidations(nil, reader).FilterPortfolio(ctx, portfolioCode, start, end)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.ConsolidatedPortfolio{}
	}
	return rows, nil
}
