package investment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriaulyamaeva/moneymine/internal/memstore"
	"github.com/valeriaulyamaeva/moneymine/models"
)

const user = "u1"

type fakePrices map[string]float64

func (f fakePrices) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	p, ok := f[ticker]
	if !ok {
		return 0, errors.New("unknown ticker")
	}
	return p, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T, prices fakePrices) (*Service, *models.Portfolio) {
	t.Helper()
	s := NewService(memstore.New(), prices, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC) }

	p, err := s.CreatePortfolio(context.Background(), user, &models.Portfolio{Name: "Main"})
	require.NoError(t, err)
	return s, p
}

func TestCreateInvestmentThenBuy(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{
		AssetType: models.AssetStock, Ticker: "petr4", Quantity: 50, PurchasePrice: 500, PurchaseDate: day(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "PETR4", inv.Ticker)

	txs, err := s.ListInvestmentTransactions(ctx, user, p.Code, inv.Code)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.InvestmentBuy, txs[0].Type)

	_, position, err := s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{
		Type: models.InvestmentBuy, Date: day(2024, 2, 1), Quantity: 10, Price: 530,
	})
	require.NoError(t, err)
	assert.Equal(t, 60.0, position.Quantity)
	assert.Equal(t, 505.0, position.PurchasePrice)
	assert.Equal(t, 530.0, *position.CurrentAveragePrice)
}

func TestRejectedSellLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{
		AssetType: models.AssetREIT, Ticker: "HGLG11", Quantity: 30, PurchasePrice: 10, PurchaseDate: day(2024, 1, 1),
	})
	require.NoError(t, err)

	_, _, err = s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{
		Type: models.InvestmentSell, Date: day(2023, 12, 1), Quantity: 40, Price: 12,
	})
	require.ErrorIs(t, err, models.ErrOperationNotPermitted)

	txs, err := s.ListInvestmentTransactions(ctx, user, p.Code, inv.Code)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	stored, err := s.GetInvestment(ctx, user, p.Code, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.Quantity)
	assert.Equal(t, 10.0, *stored.CurrentAveragePrice)
}

func TestInvalidTypeForAssetClassIsRejected(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: "VALE3", Quantity: 1, PurchasePrice: 60})
	require.NoError(t, err)

	_, _, err = s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{Type: models.InvestmentInterest, Price: 1})
	assert.ErrorIs(t, err, models.ErrInvalidTransactionType)

	_, _, err = s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{Type: "SPLIT"})
	assert.ErrorIs(t, err, models.ErrInvalidTransactionType)
}

func TestFixedIncomeLifecycle(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{
		AssetType: models.AssetFixedIncome, Ticker: "CDB", Quantity: 1, PurchasePrice: 1000, PurchaseDate: day(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, *inv.CurrentAveragePrice)

	txs, err := s.ListInvestmentTransactions(ctx, user, p.Code, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentDeposit, txs[0].Type)

	_, _, err = s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{Type: models.InvestmentInterest, Date: day(2024, 2, 1), Price: 12.5})
	require.NoError(t, err)
	withdrawal, position, err := s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{Type: models.InvestmentWithdrawal, Date: day(2024, 3, 1), Price: 200})
	require.NoError(t, err)
	assert.Equal(t, 800.0, position.PurchasePrice)
	assert.Equal(t, 812.5, *position.CurrentAveragePrice)

	position, err = s.DeleteInvestmentTransaction(ctx, user, p.Code, inv.Code, withdrawal.Code)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, position.PurchasePrice)
	assert.Equal(t, 1012.5, *position.CurrentAveragePrice)
}

func TestUpdateInvestmentTransactionRecomputes(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: "ITSA4", Quantity: 10, PurchasePrice: 15, PurchaseDate: day(2024, 1, 1)})
	require.NoError(t, err)
	buy, _, err := s.CreateInvestmentTransaction(ctx, user, p.Code, inv.Code, &models.InvestmentTransaction{Type: models.InvestmentBuy, Date: day(2024, 1, 2), Quantity: 10, Price: 25})
	require.NoError(t, err)

	_, position, err := s.UpdateInvestmentTransaction(ctx, user, p.Code, inv.Code, buy.Code, &models.InvestmentTransaction{Type: models.InvestmentBuy, Date: day(2024, 1, 2), Quantity: 10, Price: 20})
	require.NoError(t, err)
	assert.Equal(t, 17.5, position.PurchasePrice)
	assert.Equal(t, 20.0, position.Quantity)

	updated, _, err := s.UpdateInvestmentTransaction(ctx, user, p.Code, inv.Code, buy.Code, &models.InvestmentTransaction{Type: models.InvestmentBuy, Quantity: 10, Price: 20})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 2), updated.Date)

	_, _, err = s.UpdateInvestmentTransaction(ctx, user, p.Code, inv.Code, buy.Code, &models.InvestmentTransaction{Code: "x", Type: models.InvestmentBuy})
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)
}

func TestOverviewAndDiversification(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, fakePrices{"PETR4": 40, "HGLG11": 150})

	overview, err := s.Overview(ctx, user, p.Code)
	require.NoError(t, err)
	assert.Zero(t, overview.PortfolioYield)
	assert.Zero(t, overview.PortfolioGrossNominalYield)

	for _, inv := range []models.Investment{
		{AssetType: models.AssetStock, Ticker: "PETR4", Quantity: 10, PurchasePrice: 30},
		{AssetType: models.AssetREIT, Ticker: "HGLG11", Quantity: 2, PurchasePrice: 160},
		{AssetType: models.AssetFixedIncome, Ticker: "CDB", Quantity: 1, PurchasePrice: 500},
	} {
		inv := inv
		_, err := s.CreateInvestment(ctx, user, p.Code, &inv)
		require.NoError(t, err)
	}

	updated, err := s.UpdatePrices(ctx, user, p.Code)
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	overview, err = s.Overview(ctx, user, p.Code)
	require.NoError(t, err)
	assert.Equal(t, 1120.0, overview.AmountInvested)
	assert.Equal(t, 1200.0, overview.CurrentBalance)
	assert.Equal(t, 7.1, overview.PortfolioYield)
	assert.Equal(t, 80.0, overview.PortfolioGrossNominalYield)

	alloc, err := s.Diversification(ctx, user, p.Code)
	require.NoError(t, err)
	assert.Equal(t, []models.AssetAllocation{
		{AssetType: models.AssetStock, Value: 400},
		{AssetType: models.AssetREIT, Value: 300},
		{AssetType: models.AssetFixedIncome, Value: 500},
	}, alloc)
}

func TestUpdatePricesFailsWithoutWrites(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, fakePrices{"PETR4": 40})

	for _, ticker := range []string{"PETR4", "MISSING3"} {
		_, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: ticker, Quantity: 1, PurchasePrice: 10})
		require.NoError(t, err)
	}

	_, err := s.UpdatePrices(ctx, user, p.Code)
	assert.ErrorIs(t, err, models.ErrUnexpected)

	invs, err := s.ListInvestments(ctx, user, p.Code, "ticker")
	require.NoError(t, err)
	for _, inv := range invs {
		assert.Equal(t, 10.0, *inv.CurrentAveragePrice)
	}
}

func TestConsolidatePortfolioUpsertsToday(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	_, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: "PETR4", Quantity: 10, PurchasePrice: 30})
	require.NoError(t, err)

	first, err := s.ConsolidatePortfolio(ctx, user, p.Code)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 7, 1), first.Date)
	assert.Equal(t, 300.0, first.Balance)

	_, err = s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: "VALE3", Quantity: 1, PurchasePrice: 60})
	require.NoError(t, err)
	_, err = s.ConsolidatePortfolio(ctx, user, p.Code)
	require.NoError(t, err)

	rows, err := s.ListPortfolioConsolidations(ctx, user, p.Code, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 360.0, rows[0].Balance)
	assert.Equal(t, 360.0, rows[0].AmountInvested)
}

func TestConsolidateAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, nil)
	_, err := s.CreatePortfolio(ctx, "u2", &models.Portfolio{Name: "Other"})
	require.NoError(t, err)

	n, err := s.ConsolidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPortfolioScoping(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)

	_, err := s.GetPortfolio(ctx, "u2", p.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.ListInvestments(ctx, "u2", p.Code, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.UpdatePortfolio(ctx, user, p.Code, &models.Portfolio{Code: "other", Name: "x"})
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)

	require.NoError(t, s.DeletePortfolio(ctx, user, p.Code))
	_, err = s.GetPortfolio(ctx, user, p.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateInvestment(t *testing.T) {
	ctx := context.Background()
	s, p := newService(t, nil)
	inv, err := s.CreateInvestment(ctx, user, p.Code, &models.Investment{AssetType: models.AssetStock, Ticker: "PETR4", Quantity: 10, PurchasePrice: 30})
	require.NoError(t, err)

	price := 33.3
	updated, err := s.UpdateInvestment(ctx, user, p.Code, inv.Code, &models.Investment{Ticker: "petr3", CurrentAveragePrice: &price, Quantity: 999})
	require.NoError(t, err)
	assert.Equal(t, "PETR3", updated.Ticker)
	assert.Equal(t, 33.3, *updated.CurrentAveragePrice)
	assert.Equal(t, 10.0, updated.Quantity)

	_, err = s.UpdateInvestment(ctx, user, p.Code, inv.Code, &models.Investment{AssetType: models.AssetFixedIncome})
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)
}
