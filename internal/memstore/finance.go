package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

func duplicate(entity, code string) error {
	return fmt.Errorf("%w: %s %s already exists", models.ErrDatabase, entity, code)
}

func (v *view) CreateAccount(ctx context.Context, account *models.Account) error {
	st, done := v.begin()
	defer done()

	if account.Code == "" {
		account.Code = utils.NewCode()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	for _, a := range st.accounts {
		if a.Code == account.Code {
			return duplicate("account", account.Code)
		}
	}
	st.accounts = append(st.accounts, *account)
	return nil
}

func (v *view) findAccount(st *state, code string) int {
	for i, a := range st.accounts {
		if a.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) GetAccount(ctx context.Context, userCode, code string) (*models.Account, error) {
	st, done := v.begin()
	defer done()

	i := v.findAccount(st, code)
	if i < 0 || st.accounts[i].UserCode != userCode {
		return nil, models.NotFound("account", code)
	}
	a := st.accounts[i]
	return &a, nil
}

func (v *view) GetAccountByCode(ctx context.Context, code string) (*models.Account, error) {
	st, done := v.begin()
	defer done()

	i := v.findAccount(st, code)
	if i < 0 {
		return nil, models.NotFound("account", code)
	}
	a := st.accounts[i]
	return &a, nil
}

func (v *view) ListAccounts(ctx context.Context, userCode string) ([]models.Account, error) {
	st, done := v.begin()
	defer done()

	var out []models.Account
	for _, a := range st.accounts {
		if a.UserCode == userCode {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v *view) UpdateAccount(ctx context.Context, account *models.Account) error {
	st, done := v.begin()
	defer done()

	i := v.findAccount(st, account.Code)
	if i < 0 {
		return models.NotFound("account", account.Code)
	}
	stored := &st.accounts[i]
	stored.Name = account.Name
	stored.Description = account.Description
	*account = *stored
	return nil
}

func (v *view) UpdateAccountBalance(ctx context.Context, code string, balance float64) error {
	st, done := v.begin()
	defer done()

	i := v.findAccount(st, code)
	if i < 0 {
		return models.NotFound("account", code)
	}
	st.accounts[i].Balance = balance
	return nil
}

func (v *view) DeleteAccount(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findAccount(st, code)
	if i < 0 {
		return models.NotFound("account", code)
	}
	st.accounts = append(st.accounts[:i:i], st.accounts[i+1:]...)

	txs := st.transactions[:0:0]
	for _, tx := range st.transactions {
		if tx.AccountCode != code {
			txs = append(txs, tx)
		}
	}
	st.transactions = txs

	cons := st.accountConsolidations[:0:0]
	for _, c := range st.accountConsolidations {
		if c.AccountCode != code {
			cons = append(cons, c)
		}
	}
	st.accountConsolidations = cons
	return nil
}

func (v *view) LockAccount(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	if v.findAccount(st, code) < 0 {
		return models.NotFound("account", code)
	}
	return nil
}

func (v *view) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	st, done := v.begin()
	defer done()

	if tx.Code == "" {
		tx.Code = utils.NewCode()
	}
	if v.findAccount(st, tx.AccountCode) < 0 {
		return models.NotFound("account", tx.AccountCode)
	}
	if err := v.checkCategoryRef(st, tx.CategoryCode); err != nil {
		return err
	}
	for _, t := range st.transactions {
		if t.Code == tx.Code {
			return duplicate("transaction", tx.Code)
		}
	}
	st.transactions = append(st.transactions, *tx)
	return nil
}

func (v *view) checkCategoryRef(st *state, code *string) error {
	if code == nil || *code == "" {
		return nil
	}
	if v.findCategory(st, *code) < 0 {
		return models.NotFound("category", *code)
	}
	return nil
}

func (v *view) findTransaction(st *state, code string) int {
	for i, t := range st.transactions {
		if t.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) GetTransaction(ctx context.Context, code string) (*models.Transaction, error) {
	st, done := v.begin()
	defer done()

	i := v.findTransaction(st, code)
	if i < 0 {
		return nil, models.NotFound("transaction", code)
	}
	t := st.transactions[i]
	return &t, nil
}

func (v *view) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	st, done := v.begin()
	defer done()

	i := v.findTransaction(st, tx.Code)
	if i < 0 {
		return models.NotFound("transaction", tx.Code)
	}
	if v.findAccount(st, tx.AccountCode) < 0 {
		return models.NotFound("account", tx.AccountCode)
	}
	if err := v.checkCategoryRef(st, tx.CategoryCode); err != nil {
		return err
	}
	st.transactions[i] = *tx
	return nil
}

func (v *view) DeleteTransaction(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findTransaction(st, code)
	if i < 0 {
		return models.NotFound("transaction", code)
	}
	st.transactions = append(st.transactions[:i:i], st.transactions[i+1:]...)
	return nil
}

func (v *view) FilterTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	st, done := v.begin()
	defer done()

	var out []models.Transaction
	for _, t := range st.transactions {
		if !contains(filter.AccountCodes, t.AccountCode) {
			continue
		}
		if len(filter.CategoryCodes) > 0 && (t.CategoryCode == nil || !contains(filter.CategoryCodes, *t.CategoryCode)) {
			continue
		}
		if filter.Start != nil && t.Date.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && t.Date.After(*filter.End) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (v *view) ClearTransactionCategory(ctx context.Context, categoryCodes []string) error {
	st, done := v.begin()
	defer done()

	for i, t := range st.transactions {
		if t.CategoryCode != nil && contains(categoryCodes, *t.CategoryCode) {
			st.transactions[i].CategoryCode = nil
		}
	}
	return nil
}

func (v *view) findCategory(st *state, code string) int {
	for i, c := range st.categories {
		if c.Code == code {
			return i
		}
	}
	return -1
}

func (v *view) CreateCategory(ctx context.Context, category *models.Category) error {
	st, done := v.begin()
	defer done()

	if category.Code == "" {
		category.Code = utils.NewCode()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	if v.findCategory(st, category.Code) >= 0 {
		return duplicate("category", category.Code)
	}
	if err := v.checkCategoryRef(st, category.ParentCategoryCode); err != nil {
		return err
	}
	st.categories = append(st.categories, *category)
	return nil
}

func (v *view) GetCategory(ctx context.Context, code string) (*models.Category, error) {
	st, done := v.begin()
	defer done()

	i := v.findCategory(st, code)
	if i < 0 {
		return nil, models.NotFound("category", code)
	}
	c := st.categories[i]
	return &c, nil
}

func (v *view) ListCategories(ctx context.Context, userCode string) ([]models.Category, error) {
	st, done := v.begin()
	defer done()

	var out []models.Category
	for _, c := range st.categories {
		if c.UserCode == userCode {
			out = append(out, c)
		}
	}
	return out, nil
}

func (v *view) UpdateCategory(ctx context.Context, category *models.Category) error {
	st, done := v.begin()
	defer done()

	i := v.findCategory(st, category.Code)
	if i < 0 {
		return models.NotFound("category", category.Code)
	}
	if err := v.checkCategoryRef(st, category.ParentCategoryCode); err != nil {
		return err
	}
	stored := &st.categories[i]
	stored.Name = category.Name
	stored.ParentCategoryCode = category.ParentCategoryCode
	*category = *stored
	return nil
}

// DeleteCategory refuses to orphan children or transactions, like the foreign keys
// of the Postgres schema.
func (v *view) DeleteCategory(ctx context.Context, code string) error {
	st, done := v.begin()
	defer done()

	i := v.findCategory(st, code)
	if i < 0 {
		return models.NotFound("category", code)
	}
	for _, c := range st.categories {
		if c.ParentCategoryCode != nil && *c.ParentCategoryCode == code {
			return models.NotPermitted("category %s still has children", code)
		}
	}
	for _, t := range st.transactions {
		if t.CategoryCode != nil && *t.CategoryCode == code {
			return models.NotPermitted("category %s is referenced by transactions", code)
		}
	}
	st.categories = append(st.categories[:i:i], st.categories[i+1:]...)
	return nil
}

func (v *view) FilterByAccountMonth(ctx context.Context, accountCodes []string, month time.Time) ([]models.AccountConsolidation, error) {
	st, done := v.begin()
	defer done()

	month = utils.FirstDayOfMonth(month)
	var out []models.AccountConsolidation
	for _, c := range st.accountConsolidations {
		if contains(accountCodes, c.AccountCode) && c.Month.Equal(month) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (v *view) FindAllByAccount(ctx context.Context, accountCodes []string, start, end *time.Time) ([]models.AccountConsolidation, error) {
	st, done := v.begin()
	defer done()

	var out []models.AccountConsolidation
	for _, c := range st.accountConsolidations {
		if !contains(accountCodes, c.AccountCode) {
			continue
		}
		if start != nil && c.Month.Before(*start) {
			continue
		}
		if end != nil && c.Month.After(*end) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (v *view) CreateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error {
	st, done := v.begin()
	defer done()

	c.Month = utils.FirstDayOfMonth(c.Month)
	for _, existing := range st.accountConsolidations {
		if existing.AccountCode == c.AccountCode && existing.Month.Equal(c.Month) {
			return duplicate("account consolidation", c.AccountCode+"@"+c.Month.Format(utils.MonthLayout))
		}
	}
	st.accountConsolidations = append(st.accountConsolidations, *c)
	return nil
}

func (v *view) UpdateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error {
	st, done := v.begin()
	defer done()

	c.Month = utils.FirstDayOfMonth(c.Month)
	for i, existing := range st.accountConsolidations {
		if existing.AccountCode == c.AccountCode && existing.Month.Equal(c.Month) {
			st.accountConsolidations[i].Balance = c.Balance
			return nil
		}
	}
	return models.NotFound("account consolidation", c.AccountCode)
}
