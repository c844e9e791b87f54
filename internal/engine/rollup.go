package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
)

type RollupStore interface {
	interfaces.AccountStore
	interfaces.CategoryStore
	interfaces.TransactionStore
}

// CategoryRollup resolves the category hierarchy, which is stored flat as parent links.
type CategoryRollup struct {
	store RollupStore
}

func NewCategoryRollup(store RollupStore) *CategoryRollup {
	return &CategoryRollup{store: store}
}

// RootOf walks parent links up to the top-most ancestor of categoryCode.
func (r *CategoryRollup) RootOf(ctx context.Context, categoryCode string) (*models.Category, error) {
	visited := make(map[string]bool)
	code := categoryCode
	for {
		if visited[code] {
			return nil, fmt.Errorf("%w: cycle through category %s", models.ErrInvalidHierarchy, code)
		}
		visited[code] = true

		category, err := r.store.GetCategory(ctx, code)
		if err != nil {
			return nil, err
		}
		if !category.HasParent() {
			return category, nil
		}
		code = *category.ParentCategoryCode
	}
}

// ListDescendants returns every category below categoryCode, depth first, parents
// before their children.
func (r *CategoryRollup) ListDescendants(ctx context.Context, categoryCode, userCode string) ([]models.Category, error) {
	categories, err := r.store.ListCategories(ctx, userCode)
	if err != nil {
		return nil, err
	}
	return newHierarchy(categories).descendants(categoryCode)
}

// CascadingDelete removes categoryCode and its whole subtree, children first, and
// returns the deleted codes in deletion order. Transactions pointing at any of them
// must be detached beforehand.
func (r *CategoryRollup) CascadingDelete(ctx context.Context, categoryCode string) ([]string, error) {
	root, err := r.store.GetCategory(ctx, categoryCode)
	if err != nil {
		return nil, err
	}
	categories, err := r.store.ListCategories(ctx, root.UserCode)
	if err != nil {
		return nil, err
	}

	order, err := newHierarchy(categories).postOrder(categoryCode)
	if err != nil {
		return nil, err
	}
	for _, code := range order {
		if err := r.store.DeleteCategory(ctx, code); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// GroupSumByRootCategory sums the non-deposit transactions of the user's accounts in
// [start, end] per root category. Rows keep the order in which each root first appears.
func (r *CategoryRollup) GroupSumByRootCategory(ctx context.Context, userCode string, accountCodes []string, start, end *time.Time) ([]models.CategoryTotal, error) {
	for _, code := range accountCodes {
		if _, err := r.store.GetAccount(ctx, userCode, code); err != nil {
			return nil, err
		}
	}

	categories, err := r.store.ListCategories(ctx, userCode)
	if err != nil {
		return nil, err
	}
	h := newHierarchy(categories)

	txs, err := r.store.FilterTransactions(ctx, models.TransactionFilter{
		AccountCodes: accountCodes,
		Start:        start,
		End:          end,
	})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		name  string
		total decimal.Decimal
	}
	var order []string
	buckets := make(map[string]*bucket)

	for _, tx := range txs {
		if tx.Type == models.TransactionDeposit {
			continue
		}

		key, name := "", models.UncategorizedName
		if tx.CategoryCode != nil && *tx.CategoryCode != "" {
			root, err := h.root(*tx.CategoryCode)
			if err != nil {
				return nil, err
			}
			key, name = root.Code, root.Name
		}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{name: name}
			buckets[key] = b
			order = append(order, key)
		}
		b.total = b.total.Add(decimal.NewFromFloat(tx.Value))
	}

	totals := make([]models.CategoryTotal, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		totals = append(totals, models.CategoryTotal{Category: b.name, Value: b.total.Round(2).InexactFloat64()})
	}
	return totals, nil
}

// hierarchy indexes a flat category list once per call.
type hierarchy struct {
	byCode   map[string]models.Category
	children map[string][]string
	roots    map[string]string
}

func newHierarchy(categories []models.Category) *hierarchy {
	h := &hierarchy{
		byCode:   make(map[string]models.Category, len(categories)),
		children: make(map[string][]string),
		roots:    make(map[string]string),
	}
	for _, c := range categories {
		h.byCode[c.Code] = c
		if c.HasParent() {
			h.children[*c.ParentCategoryCode] = append(h.children[*c.ParentCategoryCode], c.Code)
		}
	}
	return h
}

func (h *hierarchy) root(code string) (models.Category, error) {
	if rootCode, ok := h.roots[code]; ok {
		return h.byCode[rootCode], nil
	}

	visited := make(map[string]bool)
	path := []string{}
	current := code
	for {
		if rootCode, ok := h.roots[current]; ok {
			current = rootCode
			break
		}
		if visited[current] {
			return models.Category{}, fmt.Errorf("%w: cycle through category %s", models.ErrInvalidHierarchy, current)
		}
		visited[current] = true

		c, ok := h.byCode[current]
		if !ok {
			return models.Category{}, models.NotFound("category", current)
		}
		path = append(path, current)
		if !c.HasParent() {
			break
		}
		current = *c.ParentCategoryCode
	}

	for _, p := range path {
		h.roots[p] = current
	}
	return h.byCode[current], nil
}

func (h *hierarchy) descendants(code string) ([]models.Category, error) {
	if _, ok := h.byCode[code]; !ok {
		return nil, models.NotFound("category", code)
	}

	var out []models.Category
	visited := map[string]bool{code: true}
	var walk func(string) error
	walk = func(parent string) error {
		for _, child := range h.children[parent] {
			if visited[child] {
				return fmt.Errorf("%w: cycle through category %s", models.ErrInvalidHierarchy, child)
			}
			visited[child] = true
			out = append(out, h.byCode[child])
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(code); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *hierarchy) postOrder(code string) ([]string, error) {
	var out []string
	visited := map[string]bool{}
	var walk func(string) error
	walk = func(node string) error {
		if visited[node] {
			return fmt.Errorf("%w: cycle through category %s", models.ErrInvalidHierarchy, node)
		}
		visited[node] = true
		for _, child := range h.children[node] {
			if err := walk(child); err != nil {
				return err
			}
		}
		out = append(out, node)
		return nil
	}
	if err := walk(code); err != nil {
		return nil, err
	}
	return out, nil
}
