// Package memstore keeps every entity in process memory. Units of work run one at a
// time against a copy of the state that replaces the live state only on success.
package memstore

import (
	"context"
	"sync"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
)

type state struct {
	accounts                []models.Account
	transactions            []models.Transaction
	categories              []models.Category
	accountConsolidations   []models.AccountConsolidation
	portfolios              []models.Portfolio
	investments             []models.Investment
	investmentTransactions  []models.InvestmentTransaction
	portfolioConsolidations []models.ConsolidatedPortfolio
}

func (s *state) clone() *state {
	c := &state{
		accounts:                append([]models.Account(nil), s.accounts...),
		transactions:            append([]models.Transaction(nil), s.transactions...),
		categories:              append([]models.Category(nil), s.categories...),
		accountConsolidations:   append([]models.AccountConsolidation(nil), s.accountConsolidations...),
		portfolios:              append([]models.Portfolio(nil), s.portfolios...),
		investments:             make([]models.Investment, len(s.investments)),
		investmentTransactions:  append([]models.InvestmentTransaction(nil), s.investmentTransactions...),
		portfolioConsolidations: append([]models.ConsolidatedPortfolio(nil), s.portfolioConsolidations...),
	}
	for i, inv := range s.investments {
		c.investments[i] = copyInvestment(inv)
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func New() *Store {
	return &Store{data: &state{}}
}

var _ interfaces.TxManager = (*Store)(nil)

// WithinTx runs fn against a private copy of the state and publishes it when fn
// succeeds. Units of work are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(interfaces.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&view{tx: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Reader returns a Store whose calls each apply directly to the live state.
func (s *Store) Reader() interfaces.Store {
	return &view{store: s}
}

// view is a Store bound either to a unit of work (tx) or to the live state.
type view struct {
	store *Store
	tx    *state
}

var _ interfaces.Store = (*view)(nil)

func (v *view) begin() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.data, v.store.mu.Unlock
}

func copyInvestment(inv models.Investment) models.Investment {
	if inv.CurrentAveragePrice != nil {
		p := *inv.CurrentAveragePrice
		inv.CurrentAveragePrice = &p
	}
	return inv
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
