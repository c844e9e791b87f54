package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

type BalanceStore interface {
	interfaces.AccountStore
	interfaces.TransactionStore
	interfaces.AccountConsolidationStore
}

// BalanceEngine derives account balances from the transaction log.
type BalanceEngine struct {
	store          BalanceStore
	consolidations *Consolidations
}

func NewBalanceEngine(store BalanceStore) *BalanceEngine {
	return &BalanceEngine{store: store, consolidations: NewConsolidations(store, nil)}
}

// RefreshBalance writes the sum of every transaction of the account as its balance.
func (e *BalanceEngine) RefreshBalance(ctx context.Context, accountCode string) (float64, error) {
	txs, err := e.store.FilterTransactions(ctx, models.TransactionFilter{AccountCodes: []string{accountCode}})
	if err != nil {
		return 0, err
	}
	balance := sumValues(txs)
	if err := e.store.UpdateAccountBalance(ctx, accountCode, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// RefreshMonthBalance upserts the consolidation of the month containing month.
func (e *BalanceEngine) RefreshMonthBalance(ctx context.Context, accountCode string, month time.Time) (*models.AccountConsolidation, error) {
	start, end := utils.FirstDayOfMonth(month), utils.LastDayOfMonth(month)
	txs, err := e.store.FilterTransactions(ctx, models.TransactionFilter{
		AccountCodes: []string{accountCode},
		Start:        &start,
		End:          &end,
	})
	if err != nil {
		return nil, err
	}
	return e.consolidations.UpsertAccountMonth(ctx, accountCode, start, sumValues(txs))
}

func sumValues(txs []models.Transaction) float64 {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(decimal.NewFromFloat(tx.Value))
	}
	return total.Round(2).InexactFloat64()
}
