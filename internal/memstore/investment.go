package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

func (v *view) findPortfolio(st *state, code string) int {
	for i, p := range st.portfolios {
		if p.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	st, done := v.begin()
	defer done()

	if portfolio.Code == "" {
		portfolio.Code = utils.NewCode()
	}
	if v.findPortfolio(st, portfolio.Code) >= 0 {
		return duplicate("portfolio", portfolio.Code)
	}
	st.portfolios = append(st.portfolios, *portfolio)
	return nil
}

func (v *view) GetPortfolio(ctx context.Context, userCode, code string) (*models.Portfolio, error) {
	st, done := v.begin()
	defer done()

	i := v.findPortfolio(st, code)
	if i < 0 || st.portfolios[i].UserCode != userCode {
		return nil, models.NotFound("portfolio", code)
	}
	p := st.portfolios[i]
	return &p, nil
}

func (v *view) ListPortfolios(ctx context.Context, userCode string) ([]models.Portfolio, error) {
	st, done := v.begin()
	defer done()

	var out []models.Portfolio
	for _, p := range st.portfolios {
		if p.UserCode == userCode {
			out = append(out, p)
		}
	}
	return out, nil
}

func (v *view) ListAllPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	st, done := v.begin()
	defer done()

	return append([]models.Portfolio(nil), st.portfolios...), nil
}

func (v *view) UpdatePortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	st, done := v.begin()
	defer done()

	i := v.findPortfolio(st, portfolio.Code)
	if i < 0 {
		return models.NotFound("portfolio", portfolio.Code)
	}
	stored := &st.portfolios[i]
	stored.Name = portfolio.Name
	stored.Description = portfolio.Description
	*portfolio = *stored
	return nil
}

func (v *view) DeletePortfolio(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findPortfolio(st, code)
	if i < 0 {
		return models.NotFound("portfolio", code)
	}
	st.portfolios = append(st.portfolios[:i:i], st.portfolios[i+1:]...)

	var removed []string
	kept := st.investments[:0:0]
	for _, inv := range st.investments {
		if inv.PortfolioCode == code {
			removed = append(removed, inv.Code)
			continue
		}
		kept = append(kept, inv)
	}
	st.investments = kept
	v.dropInvestmentTransactions(st, removed)

	cons := st.portfolioConsolidations[:0:0]
	for _, c := range st.portfolioConsolidations {
		if c.PortfolioCode != code {
			cons = append(cons, c)
		}
	}
	st.portfolioConsolidations = cons
	return nil
}

func (v *view) findInvestment(st *state, code string) int {
	for i, inv := range st.investments {
		if inv.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) CreateInvestment(ctx context.Context, investment *models.Investment) error {
	st, done := v.begin()
	defer done()

	if investment.Code == "" {
		investment.Code = utils.NewCode()
	}
	if v.findPortfolio(st, investment.PortfolioCode) < 0 {
		return models.NotFound("portfolio", investment.PortfolioCode)
	}
	if v.findInvestment(st, investment.Code) >= 0 {
		return duplicate("investment", investment.Code)
	}
	st.investments = append(st.investments, copyInvestment(*investment))
	return nil
}

func (v *view) GetInvestment(ctx context.Context, code string) (*models.Investment, error) {
	st, done := v.begin()
	defer done()

	i := v.findInvestment(st, code)
	if i < 0 {
		return nil, models.NotFound("investment", code)
	}
	inv := copyInvestment(st.investments[i])
	return &inv, nil
}

func (v *view) ListInvestments(ctx context.Context, portfolioCode, orderBy string) ([]models.Investment, error) {
	column, desc, err := models.ParseInvestmentOrder(orderBy)
	if err != nil {
		return nil, err
	}

	st, done := v.begin()
	defer done()

	var out []models.Investment
	for _, inv := range st.investments {
		if inv.PortfolioCode == portfolioCode {
			out = append(out, copyInvestment(inv))
		}
	}
	less := investmentLess(column)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

func investmentLess(column string) func(a, b models.Investment) bool {
	switch column {
	case "code":
		return func(a, b models.Investment) bool { return a.Code < b.Code }
	case "ticker":
		return func(a, b models.Investment) bool { return strings.Compare(a.Ticker, b.Ticker) < 0 }
	case "asset_type":
		return func(a, b models.Investment) bool { return a.AssetType < b.AssetType }
	case "quantity":
		return func(a, b models.Investment) bool { return a.Quantity < b.Quantity }
	case "purchase_price":
		return func(a, b models.Investment) bool { return a.PurchasePrice < b.PurchasePrice }
	case "current_average_price":
		return func(a, b models.Investment) bool { return a.CurrentPrice() < b.CurrentPrice() }
	default:
		return func(a, b models.Investment) bool { return a.PurchaseDate.Before(b.PurchaseDate) }
	}
}

func (v *view) UpdateInvestment(ctx context.Context, investment *models.Investment) error {
	st, done := v.begin()
	defer done()

	i := v.findInvestment(st, investment.Code)
	if i < 0 {
		return models.NotFound("investment", investment.Code)
	}
	investment.PortfolioCode = st.investments[i].PortfolioCode
	st.investments[i] = copyInvestment(*investment)
	return nil
}

func (v *view) DeleteInvestment(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findInvestment(st, code)
	if i < 0 {
		return models.NotFound("investment", code)
	}
	st.investments = append(st.investments[:i:i], st.investments[i+1:]...)
	v.dropInvestmentTransactions(st, []string{code})
	return nil
}

func (v *view) LockInvestment(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	if v.findInvestment(st, code) < 0 {
		return models.NotFound("investment", code)
	}
	return nil
}

func (v *view) dropInvestmentTransactions(st *state, investmentCodes []string) {
	if len(investmentCodes) == 0 {
		return
	}
	kept := st.investmentTransactions[:0:0]
	for _, tx := range st.investmentTransactions {
		if !contains(investmentCodes, tx.InvestmentCode) {
			kept = append(kept, tx)
		}
	}
	st.investmentTransactions = kept
}

func (v *view) findInvestmentTransaction(st *state, code string) int {
	for i, tx := range st.investmentTransactions {
		if tx.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) CreateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error {
	st, done := v.begin()
	defer done()

	if tx.Code == "" {
		tx.Code = utils.NewCode()
	}
	if v.findInvestment(st, tx.InvestmentCode) < 0 {
		return models.NotFound("investment", tx.InvestmentCode)
	}
	if v.findInvestmentTransaction(st, tx.Code) >= 0 {
		return duplicate("investment transaction", tx.Code)
	}
	st.investmentTransactions = append(st.investmentTransactions, *tx)
	return nil
}

func (v *view) GetInvestmentTransaction(ctx context.Context, code string) (*models.InvestmentTransaction, error) {
	st, done := v.begin()
	defer done()

	i := v.findInvestmentTransaction(st, code)
	if i < 0 {
		return nil, models.NotFound("investment transaction", code)
	}
	tx := st.investmentTransactions[i]
	return &tx, nil
}

func (v *view) UpdateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error {
	st, done := v.begin()
	defer done()

	i := v.findInvestmentTransaction(st, tx.Code)
	if i < 0 {
		return models.NotFound("investment transaction", tx.Code)
	}
	tx.InvestmentCode = st.investmentTransactions[i].InvestmentCode
	st.investmentTransactions[i] = *tx
	return nil
}

func (v *view) DeleteInvestmentTransaction(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findInvestmentTransaction(st, code)
	if i < 0 {
		return models.NotFound("investment transaction", code)
	}
	st.investmentTransactions = append(st.investmentTransactions[:i:i], st.investmentTransactions[i+1:]...)
	return nil
}

func (v *view) ListInvestmentTransactions(ctx context.Context, investmentCode string) ([]models.InvestmentTransaction, error) {
	st, done := v.begin()
	defer done()

	var out []models.InvestmentTransaction
	for _, tx := range st.investmentTransactions {
		if tx.InvestmentCode == investmentCode {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (v *view) FindPortfolioConsolidation(ctx context.Context, portfolioCode string, date time.Time) (*models.ConsolidatedPortfolio, bool, error) {
	st, done := v.begin()
	defer done()

	for _, c := range st.portfolioConsolidations {
		if c.PortfolioCode == portfolioCode && c.Date.Equal(date) {
			found := c
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (v *view) CreatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error {
	st, done := v.begin()
	defer done()

	if v.findPortfolio(st, c.PortfolioCode) < 0 {
		return models.NotFound("portfolio", c.PortfolioCode)
	}
	for _, existing := range st.portfolioConsolidations {
		if existing.PortfolioCode == c.PortfolioCode && existing.Date.Equal(c.Date) {
			return duplicate("portfolio consolidation", c.PortfolioCode+"@"+c.Date.Format(utils.DateLayout))
		}
	}
	st.portfolioConsolidations = append(st.portfolioConsolidations, *c)
	return nil
}

func (v *view) UpdatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error {
	st, done := v.begin()
	defer done()

	for i, existing := range st.portfolioConsolidations {
		if existing.PortfolioCode == c.PortfolioCode && existing.Date.Equal(c.Date) {
			st.portfolioConsolidations[i] = *c
			return nil
		}
	}
	return models.NotFound("portfolio consolidation", c.PortfolioCode)
}

func (v *view) FilterPortfolioConsolidations(ctx context.Context, portfolioCode string, start, end *time.Time) ([]models.ConsolidatedPortfolio, error) {
	st, done := v.begin()
	defer done()

	var out []models.ConsolidatedPortfolio
	for _, c := range st.portfolioConsolidations {
		if c.PortfolioCode != portfolioCode {
			continue
		}
		if start != nil && c.Date.Before(*start) {
			continue
		}
		if end != nil && c.Date.After(*end) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
