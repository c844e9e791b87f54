package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

const portfolioColumns = `code, name, description, user_code`

func scanPortfolio(row pgx.Row) (*models.Portfolio, error) {
	p := &models.Portfolio{}
	err := row.Scan(&p.Code, &p.Name, &p.Description, &p.UserCode)
	return p, err
}

func (s *Store) CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	if portfolio.Code == "" {
		portfolio.Code = utils.NewCode()
	}

	query := `INSERT INTO portfolios (code, name, description, user_code) VALUES ($1, $2, $3, $4)`
	_, err := s.q.Exec(ctx, query, portfolio.Code, portfolio.Name, portfolio.Description, portfolio.UserCode)
	return mapError(err, "portfolio", portfolio.Code)
}

func (s *Store) GetPortfolio(ctx context.Context, userCode, code string) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE code = $1 AND user_code = $2`
	p, err := scanPortfolio(s.q.QueryRow(ctx, query, code, userCode))
	if err != nil {
		return nil, mapError(err, "portfolio", code)
	}
	return p, nil
}

func (s *Store) listPortfolios(ctx context.Context, query string, args ...any) ([]models.Portfolio, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "portfolio", "")
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, mapError(err, "portfolio", "")
		}
		portfolios = append(portfolios, *p)
	}
	return portfolios, mapError(rows.Err(), "portfolio", "")
}

func (s *Store) ListPortfolios(ctx context.Context, userCode string) ([]models.Portfolio, error) {
	return s.listPortfolios(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE user_code = $1 ORDER BY id`, userCode)
}

func (s *Store) ListAllPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	return s.listPortfolios(ctx, `SELECT `+portfolioColumns+` FROM portfolios ORDER BY id`)
}

func (s *Store) UpdatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	query := `
		UPDATE portfolios SET name = $1, description = $2
		WHERE code = $3
		RETURNING ` + portfolioColumns
	updated, err := scanPortfolio(s.q.QueryRow(ctx, query, portfolio.Name, portfolio.Description, portfolio.Code))
	if err != nil {
		return mapError(err, "portfolio", portfolio.Code)
	}
	*portfolio = *updated
	return nil
}

// DeletePortfolio cascades to investments, their transactions and the snapshots.
func (s *Store) DeletePortfolio(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM portfolios WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "portfolio", code)
	}
	return affected(tag, "portfolio", code)
}

const investmentColumns = `code, portfolio_code, asset_type, ticker, quantity, purchase_price, current_average_price, purchase_date`

func scanInvestment(row pgx.Row) (*models.Investment, error) {
	i := &models.Investment{}
	err := row.Scan(&i.Code, &i.PortfolioCode, &i.AssetType, &i.Ticker, &i.Quantity,
		&i.PurchasePrice, &i.CurrentAveragePrice, &i.PurchaseDate)
	return i, err
}

func (s *Store) CreateInvestment(ctx context.Context, investment *models.Investment) error {
	if investment.Code == "" {
		investment.Code = utils.NewCode()
	}

	query := `
		INSERT INTO investments (code, portfolio_code, asset_type, ticker, quantity, purchase_price, current_average_price, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.q.Exec(ctx, query, investment.Code, investment.PortfolioCode, investment.AssetType, investment.Ticker,
		investment.Quantity, investment.PurchasePrice, investment.CurrentAveragePrice, investment.PurchaseDate)
	return mapError(err, "investment", investment.Code)
}

func (s *Store) GetInvestment(ctx context.Context, code string) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE code = $1`
	i, err := scanInvestment(s.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "investment", code)
	}
	return i, nil
}

// ListInvestments interpolates the order column only after ParseInvestmentOrder
// matched it against the known column list.
func (s *Store) ListInvestments(ctx context.Context, portfolioCode, orderBy string) ([]models.Investment, error) {
	column, desc, err := models.ParseInvestmentOrder(orderBy)
	if err != nil {
		return nil, err
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := `SELECT ` + investmentColumns + ` FROM investments
		WHERE portfolio_code = $1
		ORDER BY ` + column + ` ` + direction + `, id`
	rows, err := s.q.Query(ctx, query, portfolioCode)
	if err != nil {
		return nil, mapError(err, "investment", "")
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, mapError(err, "investment", "")
		}
		investments = append(investments, *i)
	}
	return investments, mapError(rows.Err(), "investment", "")
}

func (s *Store) UpdateInvestment(ctx context.Context, investment *models.Investment) error {
	query := `
		UPDATE investments
		SET ticker = $1, quantity = $2, purchase_price = $3, current_average_price = $4, purchase_date = $5
		WHERE code = $6`
	tag, err := s.q.Exec(ctx, query, investment.Ticker, investment.Quantity, investment.PurchasePrice,
		investment.CurrentAveragePrice, investment.PurchaseDate, investment.Code)
	if err != nil {
		return mapError(err, "investment", investment.Code)
	}
	return affected(tag, "investment", investment.Code)
}

func (s *Store) DeleteInvestment(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM investments WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "investment", code)
	}
	return affected(tag, "investment", code)
}

func (s *Store) LockInvestment(ctx context.Context, code string) error {
	return s.lock(ctx, "investments", "investment", code)
}

const investmentTransactionColumns = `code, investment_code, type, date, quantity, price`

func scanInvestmentTransaction(row pgx.Row) (*models.InvestmentTransaction, error) {
	t := &models.InvestmentTransaction{}
	err := row.Scan(&t.Code, &t.InvestmentCode, &t.Type, &t.Date, &t.Quantity, &t.Price)
	return t, err
}

func (s *Store) CreateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error {
	if tx.Code == "" {
		tx.Code = utils.NewCode()
	}

	query := `
		INSERT INTO investment_transactions (code, investment_code, type, date, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.q.Exec(ctx, query, tx.Code, tx.InvestmentCode, tx.Type, tx.Date, tx.Quantity, tx.Price)
	return mapError(err, "investment transaction", tx.Code)
}

func (s *Store) GetInvestmentTransaction(ctx context.Context, code string) (*models.InvestmentTransaction, error) {
	query := `SELECT ` + investmentTransactionColumns + ` FROM investment_transactions WHERE code = $1`
	t, err := scanInvestmentTransaction(s.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "investment transaction", code)
	}
	return t, nil
}

// UpdateInvestmentTransaction never moves a transaction to another investment.
func (s *Store) UpdateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error {
	query := `
		UPDATE investment_transactions SET type = $1, date = $2, quantity = $3, price = $4
		WHERE code = $5
		RETURNING investment_code`
	err := s.q.QueryRow(ctx, query, tx.Type, tx.Date, tx.Quantity, tx.Price, tx.Code).Scan(&tx.InvestmentCode)
	return mapError(err, "investment transaction", tx.Code)
}

func (s *Store) DeleteInvestmentTransaction(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM investment_transactions WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "investment transaction", code)
	}
	return affected(tag, "investment transaction", code)
}

func (s *Store) ListInvestmentTransactions(ctx context.Context, investmentCode string) ([]models.InvestmentTransaction, error) {
	query := `SELECT ` + investmentTransactionColumns + ` FROM investment_transactions
		WHERE investment_code = $1
		ORDER BY date, id`
	rows, err := s.q.Query(ctx, query, investmentCode)
	if err != nil {
		return nil, mapError(err, "investment transaction", "")
	}
	defer rows.Close()

	var txs []models.InvestmentTransaction
	for rows.Next() {
		t, err := scanInvestmentTransaction(rows)
		if err != nil {
			return nil, mapError(err, "investment transaction", "")
		}
		txs = append(txs, *t)
	}
	return txs, mapError(rows.Err(), "investment transaction", "")
}

const portfolioConsolidationColumns = `portfolio_code, date, balance, amount_invested`

func scanPortfolioConsolidation(row pgx.Row) (*models.ConsolidatedPortfolio, error) {
	c := &models.ConsolidatedPortfolio{}
	err := row.Scan(&c.PortfolioCode, &c.Date, &c.Balance, &c.AmountInvested)
	return c, err
}

func (s *Store) FindPortfolioConsolidation(ctx context.Context, portfolioCode string, date time.Time) (*models.ConsolidatedPortfolio, bool, error) {
	query := `SELECT ` + portfolioConsolidationColumns + ` FROM portfolio_consolidations
		WHERE portfolio_code = $1 AND date = $2`
	c, err := scanPortfolioConsolidation(s.q.QueryRow(ctx, query, portfolioCode, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError(err, "portfolio consolidation", portfolioCode)
	}
	return c, true, nil
}

func (s *Store) CreatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error {
	query := `
		INSERT INTO portfolio_consolidations (portfolio_code, date, balance, amount_invested)
		VALUES ($1, $2, $3, $4)`
	_, err := s.q.Exec(ctx, query, c.PortfolioCode, c.Date, c.Balance, c.AmountInvested)
	return mapError(err, "portfolio consolidation", c.PortfolioCode)
}

func (s *Store) UpdatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error {
	query := `
		UPDATE portfolio_consolidations SET balance = $1, amount_invested = $2
		WHERE portfolio_code = $3 AND date = $4`
	tag, err := s.q.Exec(ctx, query, c.Balance, c.AmountInvested, c.PortfolioCode, c.Date)
	if err != nil {
		return mapError(err, "portfolio consolidation", c.PortfolioCode)
	}
	return affected(tag, "portfolio consolidation", c.PortfolioCode)
}

func (s *Store) FilterPortfolioConsolidations(ctx context.Context, portfolioCode string, start, end *time.Time) ([]models.ConsolidatedPortfolio, error) {
	query := `SELECT ` + portfolioConsolidationColumns + ` FROM portfolio_consolidations
		WHERE portfolio_code = $1
		  AND ($2::date IS NULL OR date >= $2)
		  AND ($3::date IS NULL OR date <= $3)
		ORDER BY date`
	rows, err := s.q.Query(ctx, query, portfolioCode, start, end)
	if err != nil {
		return nil, mapError(err, "portfolio consolidation", "")
	}
	defer rows.Close()

	var out []models.ConsolidatedPortfolio
	for rows.Next() {
		c, err := scanPortfolioConsolidation(rows)
		if err != nil {
			return nil, mapError(err, "portfolio consolidation", "")
		}
		out = append(out, *c)
	}
	return out, mapError(rows.Err(), "portfolio consolidation", "")
}
