package engine

import (
	"context"
	"time"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

// Consolidations reads and upserts snapshots. Either store may be nil when the
// caller only needs the other kind.
type Consolidations struct {
	accounts   interfaces.AccountConsolidationStore
	portfolios interfaces.PortfolioConsolidationStore
}

func NewConsolidations(accounts interfaces.AccountConsolidationStore, portfolios interfaces.PortfolioConsolidationStore) *Consolidations {
	return &Consolidations{accounts: accounts, portfolios: portfolios}
}

// FilterByAccountMonth returns the snapshots of exactly the month containing month.
func (c *Consolidations) FilterByAccountMonth(ctx context.Context, accountCodes []string, month time.Time) ([]models.AccountConsolidation, error) {
	return c.accounts.FilterByAccountMonth(ctx, accountCodes, utils.FirstDayOfMonth(month))
}

// FindAllByAccount returns snapshots from the first day of startMonth through the last
// day of endMonth, ascending by month.
func (c *Consolidations) FindAllByAccount(ctx context.Context, accountCodes []string, startMonth, endMonth *time.Time) ([]models.AccountConsolidation, error) {
	var start, end *time.Time
	if startMonth != nil {
		s := utils.FirstDayOfMonth(*startMonth)
		start = &s
	}
	if endMonth != nil {
		e := utils.LastDayOfMonth(*endMonth)
		end = &e
	}
	return c.accounts.FindAllByAccount(ctx, accountCodes, start, end)
}

func (c *Consolidations) UpsertAccountMonth(ctx context.Context, accountCode string, month time.Time, balance float64) (*models.AccountConsolidation, error) {
	month = utils.FirstDayOfMonth(month)
	existing, err := c.accounts.FilterByAccountMonth(ctx, []string{accountCode}, month)
	if err != nil {
		return nil, err
	}

	snapshot := &models.AccountConsolidation{AccountCode: accountCode, Month: month, Balance: balance}
	if len(existing) > 0 {
		err = c.accounts.UpdateAccountConsolidation(ctx, snapshot)
	} else {
		err = c.accounts.CreateAccountConsolidation(ctx, snapshot)
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// CreateOrUpdate overwrites the snapshot for (PortfolioCode, Date) or inserts it.
func (c *Consolidations) CreateOrUpdate(ctx context.Context, snapshot *models.ConsolidatedPortfolio) (*models.ConsolidatedPortfolio, error) {
	snapshot.Date = utils.Day(snapshot.Date)
	_, found, err := c.portfolios.FindPortfolioConsolidation(ctx, snapshot.PortfolioCode, snapshot.Date)
	if err != nil {
		return nil, err
	}
	if found {
		err = c.portfolios.UpdatePortfolioConsolidation(ctx, snapshot)
	} else {
		err = c.portfolios.CreatePortfolioConsolidation(ctx, snapshot)
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *Consolidations) FilterPortfolio(ctx context.Context, portfolioCode string, start, end *time.Time) ([]models.ConsolidatedPortfolio, error) {
	return c.portfolios.FilterPortfolioConsolidations(ctx, portfolioCode, start, end)
}
