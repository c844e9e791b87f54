package finance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriaulyamaeva/moneymine/internal/memstore"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

const user = "u1"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewService(store, zerolog.Nop()), store
}

func mustAccount(t *testing.T, s *Service, code string) {
	t.Helper()
	_, err := s.CreateAccount(context.Background(), user, &models.Account{Code: code, Name: code})
	require.NoError(t, err)
}

func balanceOf(t *testing.T, s *Service, code string) float64 {
	t.Helper()
	acc, err := s.GetAccount(context.Background(), user, code)
	require.NoError(t, err)
	return acc.Balance
}

func monthBalance(t *testing.T, store *memstore.Store, code string, month time.Time) (float64, bool) {
	t.Helper()
	rows, err := store.Reader().FilterByAccountMonth(context.Background(), []string{code}, month)
	require.NoError(t, err)
	require.LessOrEqual(t, len(rows), 1)
	if len(rows) == 0 {
		return 0, false
	}
	return rows[0].Balance, true
}

func TestTransactionLifecycleKeepsBalanceDerived(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	mustAccount(t, s, "acc")

	var codes []string
	for _, v := range []float64{100, -20.5, -4.5} {
		tx, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: "deposit", Date: day(2024, 3, 10), Value: v})
		require.NoError(t, err)
		codes = append(codes, tx.Code)
	}
	assert.Equal(t, 75.0, balanceOf(t, s, "acc"))
	mb, ok := monthBalance(t, store, "acc", day(2024, 3, 1))
	require.True(t, ok)
	assert.Equal(t, 75.0, mb)

	require.NoError(t, s.DeleteTransaction(ctx, user, codes[1]))
	assert.Equal(t, 95.5, balanceOf(t, s, "acc"), "balance drops by exactly the deleted value")
	mb, _ = monthBalance(t, store, "acc", day(2024, 3, 1))
	assert.Equal(t, 95.5, mb)
}

func TestUpdateTransactionMovesAccountAndMonth(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	mustAccount(t, s, "a")
	mustAccount(t, s, "b")

	tx, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "a", Type: models.TransactionWithdrawal, Date: day(2024, 1, 31), Value: -40})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "a", Type: models.TransactionDeposit, Date: day(2024, 1, 2), Value: 10})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(ctx, user, tx.Code, &models.Transaction{AccountCode: "b", Type: models.TransactionWithdrawal, Date: day(2024, 2, 1), Value: -45})
	require.NoError(t, err)

	assert.Equal(t, 10.0, balanceOf(t, s, "a"))
	assert.Equal(t, -45.0, balanceOf(t, s, "b"))

	jan, _ := monthBalance(t, store, "a", day(2024, 1, 1))
	assert.Equal(t, 10.0, jan)
	feb, ok := monthBalance(t, store, "b", day(2024, 2, 1))
	require.True(t, ok)
	assert.Equal(t, -45.0, feb)
}

func TestUpdateTransactionWithoutDateKeepsStoredDate(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	mustAccount(t, s, "acc")

	tx, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionDeposit, Date: day(2024, 3, 15), Value: 50})
	require.NoError(t, err)

	updated, err := s.UpdateTransaction(ctx, user, tx.Code, &models.Transaction{Type: models.TransactionDeposit, Value: 80})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 15), updated.Date)

	stored, err := s.GetTransaction(ctx, user, tx.Code)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 15), stored.Date)

	mar, ok := monthBalance(t, store, "acc", day(2024, 3, 1))
	require.True(t, ok)
	assert.Equal(t, 80.0, mar)
	_, ok = monthBalance(t, store, "acc", utils.FirstDayOfMonth(utils.Today()))
	assert.False(t, ok)
}

func TestUpdateTransactionRejectsCodeChange(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")
	tx, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionDeposit, Date: day(2024, 1, 1), Value: 1})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(ctx, user, tx.Code, &models.Transaction{Code: "other", AccountCode: "acc", Type: models.TransactionDeposit})
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)
}

func TestCreateTransactionValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")

	_, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: "gift"})
	assert.ErrorIs(t, err, models.ErrInvalidTransactionType)

	_, err = s.CreateTransaction(ctx, "intruder", &models.Transaction{AccountCode: "acc", Type: models.TransactionDeposit})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionDeposit, CategoryCode: strPtr("nope")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteCategoryDetachesTransactions(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")

	parent, err := s.CreateCategory(ctx, user, &models.Category{Name: "Home"})
	require.NoError(t, err)
	child, err := s.CreateCategory(ctx, user, &models.Category{Name: "Rent", ParentCategoryCode: &parent.Code})
	require.NoError(t, err)
	tx, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionWithdrawal, CategoryCode: &child.Code, Date: day(2024, 1, 1), Value: -900})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, user, parent.Code))

	_, err = s.GetCategory(ctx, user, child.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
	got, err := s.GetTransaction(ctx, user, tx.Code)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryCode)
	assert.Equal(t, -900.0, balanceOf(t, s, "acc"))
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	a, err := s.CreateCategory(ctx, user, &models.Category{Name: "A"})
	require.NoError(t, err)
	b, err := s.CreateCategory(ctx, user, &models.Category{Name: "B", ParentCategoryCode: &a.Code})
	require.NoError(t, err)

	_, err = s.UpdateCategory(ctx, user, a.Code, &models.Category{Name: "A", ParentCategoryCode: &b.Code})
	assert.ErrorIs(t, err, models.ErrInvalidHierarchy)
	_, err = s.UpdateCategory(ctx, user, a.Code, &models.Category{Name: "A", ParentCategoryCode: &a.Code})
	assert.ErrorIs(t, err, models.ErrInvalidHierarchy)

	_, err = s.CreateCategory(ctx, "u2", &models.Category{Name: "X", ParentCategoryCode: &a.Code})
	assert.ErrorIs(t, err, models.ErrNotFound, "parent must belong to the same user")
}

func TestListCategoriesByParent(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	a, err := s.CreateCategory(ctx, user, &models.Category{Name: "A"})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, user, &models.Category{Name: "B", ParentCategoryCode: &a.Code})
	require.NoError(t, err)

	all, err := s.ListCategories(ctx, user, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	roots, err := s.ListCategories(ctx, user, strPtr(""))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "A", roots[0].Name)

	children, err := s.ListCategories(ctx, user, &a.Code)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "B", children[0].Name)
}

func TestFilterTransactionsIncludesSubcategories(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")
	food, err := s.CreateCategory(ctx, user, &models.Category{Name: "Food"})
	require.NoError(t, err)
	market, err := s.CreateCategory(ctx, user, &models.Category{Name: "Market", ParentCategoryCode: &food.Code})
	require.NoError(t, err)
	other, err := s.CreateCategory(ctx, user, &models.Category{Name: "Other"})
	require.NoError(t, err)

	for _, c := range []string{food.Code, market.Code, other.Code} {
		c := c
		_, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionWithdrawal, CategoryCode: &c, Date: day(2024, 1, 1), Value: -1})
		require.NoError(t, err)
	}

	txs, err := s.FilterTransactions(ctx, user, models.TransactionFilter{AccountCodes: []string{"acc"}, CategoryCodes: []string{food.Code}})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	_, err = s.FilterTransactions(ctx, "u2", models.TransactionFilter{AccountCodes: []string{"acc"}})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGroupByRootCategory(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")
	c1, err := s.CreateCategory(ctx, user, &models.Category{Name: "C1"})
	require.NoError(t, err)
	c2, err := s.CreateCategory(ctx, user, &models.Category{Name: "C2"})
	require.NoError(t, err)
	c21, err := s.CreateCategory(ctx, user, &models.Category{Name: "C2.1", ParentCategoryCode: &c2.Code})
	require.NoError(t, err)

	for _, row := range []struct {
		cat   string
		value float64
	}{{c1.Code, -50}, {c1.Code, -50}, {c2.Code, -30}, {c21.Code, -70}} {
		cat := row.cat
		_, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionWithdrawal, CategoryCode: &cat, Date: day(2024, 6, 1), Value: row.value})
		require.NoError(t, err)
	}

	start, end := day(2024, 6, 1), day(2024, 6, 30)
	totals, err := s.GroupByRootCategory(ctx, user, []string{"acc"}, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryTotal{{Category: "C1", Value: -100}, {Category: "C2", Value: -100}}, totals)
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	mustAccount(t, s, "acc")

	csv := strings.Join([]string{
		"Data;Descrição;Valor",
		"2024-01-05;Salary;1.500,00",
		"10/01/2024;Market;-120,35",
		"",
		"2024-02-01;Rent;-900,00",
	}, "\n")

	txs, err := s.BulkImport(ctx, user, "acc", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, models.TransactionDeposit, txs[0].Type)
	assert.Equal(t, models.TransactionWithdrawal, txs[1].Type)
	assert.Equal(t, day(2024, 1, 10), txs[1].Date)
	assert.Nil(t, txs[1].CategoryCode)

	assert.Equal(t, 479.65, balanceOf(t, s, "acc"))
	jan, _ := monthBalance(t, store, "acc", day(2024, 1, 1))
	feb, _ := monthBalance(t, store, "acc", day(2024, 2, 1))
	assert.Equal(t, 1379.65, jan)
	assert.Equal(t, -900.0, feb)

	rows, err := s.ListConsolidations(ctx, user, []string{"acc"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "one snapshot per distinct month")
}

func TestBulkImportRejectsBadRowsAtomically(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")

	_, err := s.BulkImport(ctx, user, "acc", strings.NewReader("2024-01-05;Salary;100,00\n2024-13-01;Broken;1,00\n"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	txs, err := s.FilterTransactions(ctx, user, models.TransactionFilter{AccountCodes: []string{"acc"}})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestBulkImportRejectsBadDateOnFirstLine(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	mustAccount(t, s, "acc")

	_, err := s.BulkImport(ctx, user, "acc", strings.NewReader("2024-13-01;Rent;-500,00\n2024-02-01;Salary;1000,00\n"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 1")

	txs, err := s.FilterTransactions(ctx, user, models.TransactionFilter{AccountCodes: []string{"acc"}})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, balanceOf(t, s, "acc"))
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]float64{
		"1.234,56": 1234.56,
		"-50,5":    -50.5,
		"10":       10,
		" -0,01 ":  -0.01,
	} {
		got, err := parseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseAmount("abc")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRefreshAccount(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t)
	mustAccount(t, s, "acc")
	_, err := s.CreateTransaction(ctx, user, &models.Transaction{AccountCode: "acc", Type: models.TransactionDeposit, Date: day(2024, 4, 4), Value: 12})
	require.NoError(t, err)

	require.NoError(t, store.Reader().UpdateAccountBalance(ctx, "acc", 999))
	month := day(2024, 4, 1)
	acc, err := s.RefreshAccount(ctx, user, "acc", &month)
	require.NoError(t, err)
	assert.Equal(t, 12.0, acc.Balance)
}
