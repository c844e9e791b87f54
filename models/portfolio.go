package models

import "time"

type Portfolio struct {
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	UserCode    string  `json:"user_code" db:"user_code"`
}

type PortfolioOverview struct {
	Code                       string  `json:"code"`
	Name                       string  `json:"name"`
	Description                string  `json:"description"`
	AmountInvested             float64 `json:"amount_invested"`
	CurrentBalance             float64 `json:"current_balance"`
	PortfolioYield             float64 `json:"portfolio_yield"`
	PortfolioGrossNominalYield float64 `json:"portfolio_gross_nominal_yield"`
}

// ConsolidatedPortfolio is a daily snapshot of a portfolio; at most one per (PortfolioCode, Date).
type ConsolidatedPortfolio struct {
	PortfolioCode  string    `json:"portfolio_code" db:"portfolio_code"`
	Date           time.Time `json:"date" db:"date"`
	Balance        float64   `json:"balance" db:"balance"`
	AmountInvested float64   `json:"amount_invested" db:"amount_invested"`
}

type AssetAllocation struct {
	AssetType AssetType `json:"asset_type"`
	Value     float64   `json:"value"`
}
