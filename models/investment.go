package models

import (
	"fmt"
	"strings"
	"time"
)

type AssetType string

const (
	AssetStock       AssetType = "STOCK"
	AssetREIT        AssetType = "REIT"
	AssetFixedIncome AssetType = "FIXED_INCOME"
)

// AssetTypes lists every asset class in reporting order.
var AssetTypes = []AssetType{AssetStock, AssetREIT, AssetFixedIncome}

func ParseAssetType(s string) (AssetType, error) {
	switch a := AssetType(strings.ToUpper(strings.TrimSpace(s))); a {
	case AssetStock, AssetREIT, AssetFixedIncome:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown asset type %q", ErrInvalidInput, s)
}

// Tradable reports whether the asset has a quantity dimension priced by the market.
func (a AssetType) Tradable() bool {
	return a == AssetStock || a == AssetREIT
}

// Investment is a position inside a portfolio. For tradable assets PurchasePrice is the
// weighted average cost and CurrentAveragePrice the last traded price; for fixed income
// they hold the net amount invested and the current balance.
type Investment struct {
	Code                string    `json:"code" db:"code"`
	PortfolioCode       string    `json:"portfolio_code" db:"portfolio_code"`
	AssetType           AssetType `json:"asset_type" db:"asset_type"`
	Ticker              string    `json:"ticker" db:"ticker"`
	Quantity            float64   `json:"quantity" db:"quantity"`
	PurchasePrice       float64   `json:"purchase_price" db:"purchase_price"`
	CurrentAveragePrice *float64  `json:"current_average_price" db:"current_average_price"`
	PurchaseDate        time.Time `json:"purchase_date" db:"purchase_date"`
}

func (i Investment) CurrentPrice() float64 {
	if i.CurrentAveragePrice == nil {
		return 0
	}
	return *i.CurrentAveragePrice
}

type InvestmentTransactionType string

const (
	InvestmentBuy        InvestmentTransactionType = "BUY"
	InvestmentSell       InvestmentTransactionType = "SELL"
	InvestmentInterest   InvestmentTransactionType = "INTEREST"
	InvestmentWithdrawal InvestmentTransactionType = "WITHDRAWAL"
	InvestmentDeposit    InvestmentTransactionType = "DEPOSIT"
)

func ParseInvestmentTransactionType(s string) (InvestmentTransactionType, error) {
	switch t := InvestmentTransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case InvestmentBuy, InvestmentSell, InvestmentInterest, InvestmentWithdrawal, InvestmentDeposit:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown investment transaction type %q", ErrInvalidTransactionType, s)
}

type InvestmentTransaction struct {
	Code           string                    `json:"code" db:"code"`
	InvestmentCode string                    `json:"investment_code" db:"investment_code"`
	Type           InvestmentTransactionType `json:"type" db:"type"`
	Date           time.Time                 `json:"date" db:"date"`
	Quantity       float64                   `json:"quantity" db:"quantity"`
	Price          float64                   `json:"price" db:"price"`
}

// InvestmentTransactionVisitor has one method per transaction type. Asset classes
// implement all of them, so adding a type breaks the build until every class handles it.
type InvestmentTransactionVisitor interface {
	Buy(tx InvestmentTransaction) error
	Sell(tx InvestmentTransaction) error
	Interest(tx InvestmentTransaction) error
	Withdrawal(tx InvestmentTransaction) error
	Deposit(tx InvestmentTransaction) error
}

// Accept dispatches tx to the visitor method matching its type.
func (tx InvestmentTransaction) Accept(v InvestmentTransactionVisitor) error {
	switch tx.Type {
	case InvestmentBuy:
		return v.Buy(tx)
	case InvestmentSell:
		return v.Sell(tx)
	case InvestmentInterest:
		return v.Interest(tx)
	case InvestmentWithdrawal:
		return v.Withdrawal(tx)
	case InvestmentDeposit:
		return v.Deposit(tx)
	}
	return fmt.Errorf("%w: %q", ErrInvalidTransactionType, tx.Type)
}

// InvestmentOrderColumns are the accepted order_by values for investment listings.
var InvestmentOrderColumns = []string{"code", "ticker", "asset_type", "quantity", "purchase_price", "current_average_price", "purchase_date"}

// ParseInvestmentOrder validates an order_by value such as "ticker" or "-purchase_date".
func ParseInvestmentOrder(orderBy string) (column string, desc bool, err error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "purchase_date", false, nil
	}
	if strings.HasPrefix(orderBy, "-") {
		desc = true
		orderBy = orderBy[1:]
	}
	for _, c := range InvestmentOrderColumns {
		if c == orderBy {
			return c, desc, nil
		}
	}
	return "", false, fmt.Errorf("%w: cannot order investments by %q", ErrInvalidInput, orderBy)
}
