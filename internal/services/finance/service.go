// Package finance runs account, category and transaction mutations together with the
// balance recomputes they trigger, one unit of work per call.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/engine"
	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

type Service struct {
	tx     interfaces.TxManager
	logger zerolog.Logger
}

func NewService(tx interfaces.TxManager, logger zerolog.Logger) *Service {
	return &Service{tx: tx, logger: logger}
}

func (s *Service) CreateAccount(ctx context.Context, userCode string, account *models.Account) (*models.Account, error) {
	if strings.TrimSpace(account.Name) == "" {
		return nil, fmt.Errorf("%w: account name is required", models.ErrInvalidInput)
	}
	account.UserCode = userCode
	account.Balance = 0

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		return st.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_code", account.Code).Str("user_code", userCode).Msg("account created")
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, userCode, code string) (*models.Account, error) {
	return s.tx.Reader().GetAccount(ctx, userCode, code)
}

func (s *Service) ListAccounts(ctx context.Context, userCode string) ([]models.Account, error) {
	return s.tx.Reader().ListAccounts(ctx, userCode)
}

// UpdateAccount changes the descriptive fields. The code and the derived balance are
// not writable.
func (s *Service) UpdateAccount(ctx context.Context, userCode, code string, account *models.Account) (*models.Account, error) {
	if account.Code != "" && account.Code != code {
		return nil, models.NotPermitted("account code cannot be changed")
	}
	account.Code = code

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetAccount(ctx, userCode, code); err != nil {
			return err
		}
		return st.UpdateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userCode, code string) error {
	return s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetAccount(ctx, userCode, code); err != nil {
			return err
		}
		return st.DeleteAccount(ctx, code)
	})
}

// RefreshAccount recomputes the account balance and, when month is set, the snapshot
// of that month.
func (s *Service) RefreshAccount(ctx context.Context, userCode, code string, month *time.Time) (*models.Account, error) {
	var account *models.Account
	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetAccount(ctx, userCode, code); err != nil {
			return err
		}
		if err := st.LockAccount(ctx, code); err != nil {
			return err
		}

		balances := engine.NewBalanceEngine(st)
		if _, err := balances.RefreshBalance(ctx, code); err != nil {
			return err
		}
		if month != nil {
			if _, err := balances.RefreshMonthBalance(ctx, code, *month); err != nil {
				return err
			}
		}

		var err error
		account, err = st.GetAccountByCode(ctx, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListConsolidations returns the monthly snapshots of the user's accounts between the
// first day of startMonth and the last day of endMonth.
func (s *Service) ListConsolidations(ctx context.Context, userCode string, accountCodes []string, startMonth, endMonth *time.Time) ([]models.AccountConsolidation, error) {
	reader := s.tx.Reader()
	if err := s.checkAccounts(ctx, reader, userCode, accountCodes); err != nil {
		return nil, err
	}
	return engine.NewConsolidations(reader, nil).FindAllByAccount(ctx, accountCodes, startMonth, endMonth)
}

func (s *Service) checkAccounts(ctx context.Context, st interfaces.AccountStore, userCode string, accountCodes []string) error {
	if len(accountCodes) == 0 {
		return fmt.Errorf("%w: at least one account code is required", models.ErrInvalidInput)
	}
	for _, code := range accountCodes {
		if _, err := st.GetAccount(ctx, userCode, code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, userCode string, category *models.Category) (*models.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", models.ErrInvalidInput)
	}
	category.UserCode = userCode
	if category.ParentCategoryCode != nil && *category.ParentCategoryCode == "" {
		category.ParentCategoryCode = nil
	}

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if category.HasParent() {
			if _, err := s.getCategory(ctx, st, userCode, *category.ParentCategoryCode); err != nil {
				return err
			}
		}
		return st.CreateCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) GetCategory(ctx context.Context, userCode, code string) (*models.Category, error) {
	return s.getCategory(ctx, s.tx.Reader(), userCode, code)
}

func (s *Service) getCategory(ctx context.Context, st interfaces.CategoryStore, userCode, code string) (*models.Category, error) {
	category, err := st.GetCategory(ctx, code)
	if err != nil {
		return nil, err
	}
	if category.UserCode != userCode {
		return nil, models.NotFound("category", code)
	}
	return category, nil
}

// ListCategories returns the user's categories whose parent is parentCode; nil returns
// every category.
func (s *Service) ListCategories(ctx context.Context, userCode string, parentCode *string) ([]models.Category, error) {
	categories, err := s.tx.Reader().ListCategories(ctx, userCode)
	if err != nil {
		return nil, err
	}
	if parentCode == nil {
		return categories, nil
	}

	out := []models.Category{}
	for _, c := range categories {
		switch {
		case *parentCode == "" && !c.HasParent():
			out = append(out, c)
		case c.HasParent() && *c.ParentCategoryCode == *parentCode:
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCategory renames or moves a category. Moving it under itself or one of its
// descendants is rejected.
func (s *Service) UpdateCategory(ctx context.Context, userCode, code string, category *models.Category) (*models.Category, error) {
	if category.Code != "" && category.Code != code {
		return nil, models.NotPermitted("category code cannot be changed")
	}
	category.Code = code
	category.UserCode = userCode
	if category.ParentCategoryCode != nil && *category.ParentCategoryCode == "" {
		category.ParentCategoryCode = nil
	}

	err := s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := s.getCategory(ctx, st, userCode, code); err != nil {
			return err
		}
		if category.HasParent() {
			parent := *category.ParentCategoryCode
			if parent == code {
				return fmt.Errorf("%w: category %s cannot be its own parent", models.ErrInvalidHierarchy, code)
			}
			if _, err := s.getCategory(ctx, st, userCode, parent); err != nil {
				return err
			}
			descendants, err := engine.NewCategoryRollup(st).ListDescendants(ctx, code, userCode)
			if err != nil {
				return err
			}
			for _, d := range descendants {
				if d.Code == parent {
					return fmt.Errorf("%w: %s is below %s", models.ErrInvalidHierarchy, parent, code)
				}
			}
		}
		return st.UpdateCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category with its subtree. Transactions that used any of
// them become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, userCode, code string) error {
	return s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := s.getCategory(ctx, st, userCode, code); err != nil {
			return err
		}

		rollup := engine.NewCategoryRollup(st)
		descendants, err := rollup.ListDescendants(ctx, code, userCode)
		if err != nil {
			return err
		}
		codes := []string{code}
		for _, d := range descendants {
			codes = append(codes, d.Code)
		}
		if err := st.ClearTransactionCategory(ctx, codes); err != nil {
			return err
		}

		deleted, err := rollup.CascadingDelete(ctx, code)
		if err != nil {
			return err
		}
		s.logger.Info().Str("category_code", code).Strs("deleted", deleted).Msg("category deleted")
		return nil
	})
}

func (s *Service) GroupByRootCategory(ctx context.Context, userCode string, accountCodes []string, start, end *time.Time) ([]models.CategoryTotal, error) {
	if len(accountCodes) == 0 {
		return nil, fmt.Errorf("%w: at least one account code is required", models.ErrInvalidInput)
	}
	return engine.NewCategoryRollup(s.tx.Reader()).GroupSumByRootCategory(ctx, userCode, accountCodes, dayPtr(start), dayPtr(end))
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := utils.Day(*t)
	return &d
}
