package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valeriaulyamaeva/moneymine/models"
)

func TestOverview(t *testing.T) {
	desc := "long term"
	p := models.Portfolio{Code: "p", Name: "Main", Description: &desc}

	got := Overview(p, []models.Investment{
		{AssetType: models.AssetStock, Quantity: 10, PurchasePrice: 20, CurrentAveragePrice: price(25)},
		{AssetType: models.AssetREIT, Quantity: 5, PurchasePrice: 100, CurrentAveragePrice: price(90)},
		{AssetType: models.AssetStock, Quantity: 3, PurchasePrice: 10},
	})

	assert.Equal(t, "Main", got.Name)
	assert.Equal(t, "long term", got.Description)
	assert.Equal(t, 730.0, got.AmountInvested)
	assert.Equal(t, 700.0, got.CurrentBalance)
	assert.Equal(t, -4.1, got.PortfolioYield)
	assert.Equal(t, -30.0, got.PortfolioGrossNominalYield)
}

func TestOverviewZeroInvested(t *testing.T) {
	p := models.Portfolio{Code: "p"}

	got := Overview(p, nil)
	assert.Zero(t, got.PortfolioYield)
	assert.Zero(t, got.PortfolioGrossNominalYield)

	got = Overview(p, []models.Investment{{Quantity: 0, PurchasePrice: 10, CurrentAveragePrice: price(12)}})
	assert.Zero(t, got.AmountInvested)
	assert.Zero(t, got.PortfolioYield)
	assert.Zero(t, got.PortfolioGrossNominalYield)
}

func TestDiversification(t *testing.T) {
	got := Diversification([]models.Investment{
		{AssetType: models.AssetFixedIncome, Quantity: 1, CurrentAveragePrice: price(1000)},
		{AssetType: models.AssetStock, Quantity: 10, CurrentAveragePrice: price(25)},
		{AssetType: models.AssetStock, Quantity: 2, CurrentAveragePrice: price(5)},
		{AssetType: models.AssetStock, Quantity: 4},
	})

	assert.Equal(t, []models.AssetAllocation{
		{AssetType: models.AssetStock, Value: 260},
		{AssetType: models.AssetFixedIncome, Value: 1000},
	}, got)
	assert.Empty(t, Diversification(nil))
}
