package finance

import (
	"context"
	"sort"
	"time"

	"github.com/valeriaulyamaeva/moneymine/internal/engine"
	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

// accountMonth is one account snapshot touched by a mutation.
type accountMonth struct {
	account string
	month   time.Time
}

// lockAccounts takes the row locks in code order so two units of work touching the
// same pair of accounts cannot deadlock.
func lockAccounts(ctx context.Context, st interfaces.AccountStore, codes ...string) error {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	prev := ""
	for _, code := range sorted {
		if code == prev {
			continue
		}
		if err := st.LockAccount(ctx, code); err != nil {
			return err
		}
		prev = code
	}
	return nil
}

// refresh recomputes the balance of every listed account once and each distinct
// (account, month) snapshot once.
func refresh(ctx context.Context, st interfaces.Store, touched []accountMonth) error {
	balances := engine.NewBalanceEngine(st)

	seenAccount := make(map[string]bool)
	seenMonth := make(map[accountMonth]bool)
	for _, t := range touched {
		if !seenAccount[t.account] {
			seenAccount[t.account] = true
			if _, err := balances.RefreshBalance(ctx, t.account); err != nil {
				return err
			}
		}
		key := accountMonth{account: t.account, month: utils.FirstDayOfMonth(t.month)}
		if seenMonth[key] {
			continue
		}
		seenMonth[key] = true
		if _, err := balances.RefreshMonthBalance(ctx, key.account, key.month); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) normalizeTransaction(tx *models.Transaction) error {
	t, err := models.ParseTransactionType(string(tx.Type))
	if err != nil {
		return err
	}
	tx.Type = t
	tx.Date = utils.Day(tx.Date)
	if tx.CategoryCode != nil && *tx.CategoryCode == "" {
		tx.CategoryCode = nil
	}
	return nil
}

func (s *Service) checkCategoryRef(ctx context.Context, st interfaces.CategoryStore, userCode string, code *string) error {
	if code == nil {
		return nil
	}
	_, err := s.getCategory(ctx, st, userCode, *code)
	return err
}

func (s *Service) CreateTransaction(ctx context.Context, userCode string, tx *models.Transaction) (*models.Transaction, error) {
	if err := s.normalizeTransaction(tx); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetAccount(ctx, userCode, tx.AccountCode); err != nil {
			return err
		}
		if err := s.checkCategoryRef(ctx, st, userCode, tx.CategoryCode); err != nil {
			return err
		}
		if err := st.LockAccount(ctx, tx.AccountCode); err != nil {
			return err
		}
		if err := st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		return refresh(ctx, st, []accountMonth{{tx.AccountCode, tx.Date}})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("transaction_code", tx.Code).Str("account_code", tx.AccountCode).Float64("value", tx.Value).Msg("transaction created")
	return tx, nil
}

func (s *Service) GetTransaction(ctx context.Context, userCode, code string) (*models.Transaction, error) {
	reader := s.tx.Reader()
	tx, err := reader.GetTransaction(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, err := reader.GetAccount(ctx, userCode, tx.AccountCode); err != nil {
		return nil, models.NotFound("transaction", code)
	}
	return tx, nil
}

// UpdateTransaction replaces the transaction fields and recomputes every account and
// month the old and new versions belong to.
func (s *Service) UpdateTransaction(ctx context.Context, userCode, code string, tx *models.Transaction) (*models.Transaction, error) {
	if tx.Code != "" && tx.Code != code {
		return nil, models.NotPermitted("transaction code cannot be changed")
	}
	tx.Code = code
	if err := s.normalizeTransaction(tx); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		old, err := st.GetTransaction(ctx, code)
		if err != nil {
			return err
		}
		if _, err := st.GetAccount(ctx, userCode, old.AccountCode); err != nil {
			return models.NotFound("transaction", code)
		}
		if tx.AccountCode == "" {
			tx.AccountCode = old.AccountCode
		}
		if tx.Date.IsZero() {
			tx.Date = old.Date
		}
		if tx.AccountCode != old.AccountCode {
			if _, err := st.GetAccount(ctx, userCode, tx.AccountCode); err != nil {
				return err
			}
		}
		if err := s.checkCategoryRef(ctx, st, userCode, tx.CategoryCode); err != nil {
			return err
		}
		if err := lockAccounts(ctx, st, old.AccountCode, tx.AccountCode); err != nil {
			return err
		}
		if err := st.UpdateTransaction(ctx, tx); err != nil {
			return err
		}

		touched := []accountMonth{{tx.AccountCode, tx.Date}}
		if old.AccountCode != tx.AccountCode || !utils.SameMonth(old.Date, tx.Date) {
			touched = append(touched, accountMonth{old.AccountCode, old.Date})
		}
		return refresh(ctx, st, touched)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, userCode, code string) error {
	return s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		old, err := st.GetTransaction(ctx, code)
		if err != nil {
			return err
		}
		if _, err := st.GetAccount(ctx, userCode, old.AccountCode); err != nil {
			return models.NotFound("transaction", code)
		}
		if err := st.LockAccount(ctx, old.AccountCode); err != nil {
			return err
		}
		if err := st.DeleteTransaction(ctx, code); err != nil {
			return err
		}
		return refresh(ctx, st, []accountMonth{{old.AccountCode, old.Date}})
	})
}

// FilterTransactions lists the transactions of the user's accounts. Filtering by a
// category includes its whole subtree.
func (s *Service) FilterTransactions(ctx context.Context, userCode string, filter models.TransactionFilter) ([]models.Transaction, error) {
	reader := s.tx.Reader()
	if err := s.checkAccounts(ctx, reader, userCode, filter.AccountCodes); err != nil {
		return nil, err
	}

	if len(filter.CategoryCodes) > 0 {
		rollup := engine.NewCategoryRollup(reader)
		expanded := []string{}
		for _, code := range filter.CategoryCodes {
			if _, err := s.getCategory(ctx, reader, userCode, code); err != nil {
				return nil, err
			}
			descendants, err := rollup.ListDescendants(ctx, code, userCode)
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, code)
			for _, d := range descendants {
				expanded = append(expanded, d.Code)
			}
		}
		filter.CategoryCodes = expanded
	}
	filter.Start = dayPtr(filter.Start)
	filter.End = dayPtr(filter.End)

	txs, err := reader.FilterTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}
