package engine

import (
	"github.com/shopspring/decimal"

	"github.com/valeriaulyamaeva/moneymine/models"
)

var hundred = decimal.NewFromInt(100)

// Overview summarizes what was put into the portfolio against what it is worth now.
// Yields are zero when nothing was invested.
func Overview(portfolio models.Portfolio, investments []models.Investment) models.PortfolioOverview {
	invested := decimal.Zero
	balance := decimal.Zero
	for _, inv := range investments {
		qty := decimal.NewFromFloat(inv.Quantity)
		invested = invested.Add(decimal.NewFromFloat(inv.PurchasePrice).Mul(qty))
		if inv.CurrentAveragePrice != nil {
			balance = balance.Add(decimal.NewFromFloat(*inv.CurrentAveragePrice).Mul(qty))
		}
	}

	yield, gross := decimal.Zero, decimal.Zero
	if len(investments) > 0 && !invested.IsZero() {
		gross = balance.Sub(invested)
		yield = gross.Div(invested).Mul(hundred)
	}

	overview := models.PortfolioOverview{
		Code:                       portfolio.Code,
		Name:                       portfolio.Name,
		AmountInvested:             invested.Round(2).InexactFloat64(),
		CurrentBalance:             balance.Round(2).InexactFloat64(),
		PortfolioYield:             yield.Round(1).InexactFloat64(),
		PortfolioGrossNominalYield: gross.Round(2).InexactFloat64(),
	}
	if portfolio.Description != nil {
		overview.Description = *portfolio.Description
	}
	return overview
}

// Diversification values each asset class at quantity times current price, in
// STOCK, REIT, FIXED_INCOME order. Classes the portfolio does not hold are omitted.
func Diversification(investments []models.Investment) []models.AssetAllocation {
	totals := make(map[models.AssetType]decimal.Decimal)
	for _, inv := range investments {
		value := decimal.NewFromFloat(inv.CurrentPrice()).Mul(decimal.NewFromFloat(inv.Quantity))
		totals[inv.AssetType] = totals[inv.AssetType].Add(value)
	}

	allocation := make([]models.AssetAllocation, 0, len(totals))
	for _, asset := range models.AssetTypes {
		if value, ok := totals[asset]; ok {
			allocation = append(allocation, models.AssetAllocation{AssetType: asset, Value: value.Round(2).InexactFloat64()})
		}
	}
	return allocation
}
