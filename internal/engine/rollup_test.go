package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/internal/memstore"
	"github.com/valeriaulyamaeva/moneymine/models"
)

func strPtr(s string) *string { return &s }

func seedCategories(t *testing.T, store interfaces.Store) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []models.Category{
		{Code: "c1", Name: "C1", UserCode: "u"},
		{Code: "c2", Name: "C2", UserCode: "u"},
		{Code: "c21", Name: "C2.1", UserCode: "u", ParentCategoryCode: strPtr("c2")},
		{Code: "c211", Name: "C2.1.1", UserCode: "u", ParentCategoryCode: strPtr("c21")},
		{Code: "c22", Name: "C2.2", UserCode: "u", ParentCategoryCode: strPtr("c2")},
	} {
		c := c
		require.NoError(t, store.CreateCategory(ctx, &c))
	}
}

func TestGroupSumByRootCategory(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedCategories(t, store)
	seedAccount(t, store,
		models.Transaction{Code: "t1", Type: models.TransactionWithdrawal, Date: day(2024, 1, 2), Value: -50, CategoryCode: strPtr("c1")},
		models.Transaction{Code: "t2", Type: models.TransactionWithdrawal, Date: day(2024, 1, 3), Value: -50, CategoryCode: strPtr("c1")},
		models.Transaction{Code: "t3", Type: models.TransactionWithdrawal, Date: day(2024, 1, 4), Value: -30, CategoryCode: strPtr("c2")},
		models.Transaction{Code: "t4", Type: models.TransactionWithdrawal, Date: day(2024, 1, 5), Value: -70, CategoryCode: strPtr("c21")},
		models.Transaction{Code: "t5", Type: models.TransactionDeposit, Date: day(2024, 1, 6), Value: 1000, CategoryCode: strPtr("c2")},
		models.Transaction{Code: "t6", Type: models.TransactionWithdrawal, Date: day(2024, 2, 1), Value: -5},
	)

	start, end := day(2024, 1, 1), day(2024, 1, 31)
	totals, err := NewCategoryRollup(store).GroupSumByRootCategory(ctx, "u", []string{"acc"}, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryTotal{
		{Category: "C1", Value: -100},
		{Category: "C2", Value: -100},
	}, totals)

	totals, err = NewCategoryRollup(store).GroupSumByRootCategory(ctx, "u", []string{"acc"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, models.CategoryTotal{Category: models.UncategorizedName, Value: -5}, totals[2])
}

func TestGroupSumRejectsForeignAccount(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedAccount(t, store)

	_, err := NewCategoryRollup(store).GroupSumByRootCategory(ctx, "someone-else", []string{"acc"}, nil, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRootOf(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedCategories(t, store)
	r := NewCategoryRollup(store)

	root, err := r.RootOf(ctx, "c211")
	require.NoError(t, err)
	assert.Equal(t, "c2", root.Code)

	root, err = r.RootOf(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", root.Code)

	_, err = r.RootOf(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRootOfDetectsCycle(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedCategories(t, store)
	require.NoError(t, store.UpdateCategory(ctx, &models.Category{Code: "c2", Name: "C2", ParentCategoryCode: strPtr("c211")}))

	_, err := NewCategoryRollup(store).RootOf(ctx, "c21")
	assert.ErrorIs(t, err, models.ErrInvalidHierarchy)

	h := newHierarchy(mustList(t, store))
	_, err = h.root("c22")
	assert.ErrorIs(t, err, models.ErrInvalidHierarchy)
}

func mustList(t *testing.T, store interfaces.Store) []models.Category {
	t.Helper()
	cats, err := store.ListCategories(context.Background(), "u")
	require.NoError(t, err)
	return cats
}

func TestListDescendants(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedCategories(t, store)

	desc, err := NewCategoryRollup(store).ListDescendants(ctx, "c2", "u")
	require.NoError(t, err)
	codes := []string{}
	for _, c := range desc {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"c21", "c211", "c22"}, codes)

	desc, err = NewCategoryRollup(store).ListDescendants(ctx, "c1", "u")
	require.NoError(t, err)
	assert.Empty(t, desc)
}

func TestCascadingDeleteIsPostOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Reader()
	seedCategories(t, store)

	deleted, err := NewCategoryRollup(store).CascadingDelete(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c211", "c21", "c22", "c2"}, deleted)

	remaining := mustList(t, store)
	require.Len(t, remaining, 1)
	assert.Equal(t, "c1", remaining[0].Code)
}
