package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
)

// positionFold accumulates transactions onto one investment. Each asset class
// implements every visitor method.
type positionFold interface {
	models.InvestmentTransactionVisitor
	result(inv models.Investment) (models.Investment, error)
}

type tradableFold struct {
	asset    models.AssetType
	quantity decimal.Decimal
	average  decimal.Decimal
	current  decimal.Decimal
	latest   time.Time
	seen     bool
}

func (f *tradableFold) track(tx models.InvestmentTransaction) {
	// ties go to the later transaction in input order
	if !f.seen || !tx.Date.Before(f.latest) {
		f.latest = tx.Date
		f.current = decimal.NewFromFloat(tx.Price)
		f.seen = true
	}
}

func (f *tradableFold) Buy(tx models.InvestmentTransaction) error {
	qty := decimal.NewFromFloat(tx.Quantity)
	price := decimal.NewFromFloat(tx.Price)
	total := f.quantity.Add(qty)
	if total.IsZero() {
		f.average = decimal.Zero
	} else {
		f.average = f.quantity.Mul(f.average).Add(qty.Mul(price)).Div(total)
	}
	f.quantity = total
	f.track(tx)
	return nil
}

func (f *tradableFold) Sell(tx models.InvestmentTransaction) error {
	f.quantity = f.quantity.Sub(decimal.NewFromFloat(tx.Quantity))
	f.track(tx)
	return nil
}

func (f *tradableFold) Interest(tx models.InvestmentTransaction) error {
	return invalidFor(f.asset, tx)
}

func (f *tradableFold) Withdrawal(tx models.InvestmentTransaction) error {
	return invalidFor(f.asset, tx)
}

func (f *tradableFold) Deposit(tx models.InvestmentTransaction) error {
	return invalidFor(f.asset, tx)
}

func (f *tradableFold) result(inv models.Investment) (models.Investment, error) {
	if f.quantity.IsNegative() {
		return inv, models.NotPermitted("quantity of %s cannot be negative (%s)", inv.Code, f.quantity.String())
	}
	inv.Quantity = f.quantity.InexactFloat64()
	inv.PurchasePrice = f.average.Round(2).InexactFloat64()
	if f.seen {
		current := f.current.InexactFloat64()
		inv.CurrentAveragePrice = &current
	}
	return inv, nil
}

type fixedIncomeFold struct {
	balance  decimal.Decimal
	invested decimal.Decimal
}

func (f *fixedIncomeFold) Deposit(tx models.InvestmentTransaction) error {
	amount := decimal.NewFromFloat(tx.Price)
	f.balance = f.balance.Add(amount)
	f.invested = f.invested.Add(amount)
	return nil
}

func (f *fixedIncomeFold) Interest(tx models.InvestmentTransaction) error {
	f.balance = f.balance.Add(decimal.NewFromFloat(tx.Price))
	return nil
}

func (f *fixedIncomeFold) Withdrawal(tx models.InvestmentTransaction) error {
	amount := decimal.NewFromFloat(tx.Price)
	f.balance = f.balance.Sub(amount)
	f.invested = f.invested.Sub(amount)
	return nil
}

func (f *fixedIncomeFold) Buy(tx models.InvestmentTransaction) error {
	return invalidFor(models.AssetFixedIncome, tx)
}

func (f *fixedIncomeFold) Sell(tx models.InvestmentTransaction) error {
	return invalidFor(models.AssetFixedIncome, tx)
}

func (f *fixedIncomeFold) result(inv models.Investment) (models.Investment, error) {
	balance := f.balance.Round(2).InexactFloat64()
	inv.CurrentAveragePrice = &balance
	inv.PurchasePrice = f.invested.Round(2).InexactFloat64()
	return inv, nil
}

func invalidFor(asset models.AssetType, tx models.InvestmentTransaction) error {
	return fmt.Errorf("%w: %s is not allowed for %s", models.ErrInvalidTransactionType, tx.Type, asset)
}

func newFold(asset models.AssetType) (positionFold, error) {
	switch asset {
	case models.AssetStock, models.AssetREIT:
		return &tradableFold{asset: asset}, nil
	case models.AssetFixedIncome:
		return &fixedIncomeFold{}, nil
	}
	return nil, fmt.Errorf("%w: unknown asset type %q", models.ErrInvalidInput, asset)
}

// seedFold starts a fold from the investment's stored position.
func seedFold(inv models.Investment) (positionFold, error) {
	fold, err := newFold(inv.AssetType)
	if err != nil {
		return nil, err
	}
	switch f := fold.(type) {
	case *tradableFold:
		f.quantity = decimal.NewFromFloat(inv.Quantity)
		f.average = decimal.NewFromFloat(inv.PurchasePrice)
		if inv.CurrentAveragePrice != nil {
			f.current = decimal.NewFromFloat(*inv.CurrentAveragePrice)
		}
	case *fixedIncomeFold:
		f.invested = decimal.NewFromFloat(inv.PurchasePrice)
		f.balance = decimal.NewFromFloat(inv.CurrentPrice())
	}
	return fold, nil
}

// FoldPosition derives the position of inv from its full transaction log without
// persisting anything.
func FoldPosition(inv models.Investment, txs []models.InvestmentTransaction) (models.Investment, error) {
	fold, err := newFold(inv.AssetType)
	if err != nil {
		return inv, err
	}
	for _, tx := range txs {
		if err := tx.Accept(fold); err != nil {
			return inv, err
		}
	}
	return fold.result(inv)
}

// ApplyTransaction folds a single transaction onto the stored position of inv.
func ApplyTransaction(inv models.Investment, tx models.InvestmentTransaction) (models.Investment, error) {
	fold, err := seedFold(inv)
	if err != nil {
		return inv, err
	}
	if err := tx.Accept(fold); err != nil {
		return inv, err
	}
	return fold.result(inv)
}

type PositionEngine struct {
	investments interfaces.InvestmentStore
}

func NewPositionEngine(investments interfaces.InvestmentStore) *PositionEngine {
	return &PositionEngine{investments: investments}
}

// Recompute rebuilds the position from txs and persists it. Nothing is written when
// the log is rejected.
func (e *PositionEngine) Recompute(ctx context.Context, inv *models.Investment, txs []models.InvestmentTransaction) (*models.Investment, error) {
	updated, err := FoldPosition(*inv, txs)
	if err != nil {
		return nil, err
	}
	if err := e.investments.UpdateInvestment(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Apply folds tx onto the stored position and persists the result.
func (e *PositionEngine) Apply(ctx context.Context, inv *models.Investment, tx models.InvestmentTransaction) (*models.Investment, error) {
	updated, err := ApplyTransaction(*inv, tx)
	if err != nil {
		return nil, err
	}
	if err := e.investments.UpdateInvestment(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
