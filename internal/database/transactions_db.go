package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

const transactionColumns = `code, account_code, description, category_code, type, date, value`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(&t.Code, &t.AccountCode, &t.Description, &t.CategoryCode, &t.Type, &t.Date, &t.Value)
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.Code == "" {
		tx.Code = utils.NewCode()
	}

	query := `
		INSERT INTO transactions (code, account_code, description, category_code, type, date, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.q.Exec(ctx, query, tx.Code, tx.AccountCode, tx.Description, tx.CategoryCode, tx.Type, tx.Date, tx.Value)
	return mapError(err, "transaction", tx.Code)
}

func (s *Store) GetTransaction(ctx context.Context, code string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE code = $1`
	t, err := scanTransaction(s.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "transaction", code)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		UPDATE transactions
		SET account_code = $1, description = $2, category_code = $3, type = $4, date = $5, value = $6
		WHERE code = $7`
	tag, err := s.q.Exec(ctx, query, tx.AccountCode, tx.Description, tx.CategoryCode, tx.Type, tx.Date, tx.Value, tx.Code)
	if err != nil {
		return mapError(err, "transaction", tx.Code)
	}
	return affected(tag, "transaction", tx.Code)
}

func (s *Store) DeleteTransaction(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM transactions WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "transaction", code)
	}
	return affected(tag, "transaction", code)
}

func (s *Store) FilterTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	conditions := []string{"account_code = ANY($1)"}
	args := []any{filter.AccountCodes}
	if len(filter.CategoryCodes) > 0 {
		args = append(args, filter.CategoryCodes)
		conditions = append(conditions, fmt.Sprintf("category_code = ANY($%d)", len(args)))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY date, id`
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "transaction", "")
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapError(err, "transaction", "")
		}
		txs = append(txs, *t)
	}
	return txs, mapError(rows.Err(), "transaction", "")
}

func (s *Store) ClearTransactionCategory(ctx context.Context, categoryCodes []string) error {
	_, err := s.q.Exec(ctx, `UPDATE transactions SET category_code = NULL WHERE category_code = ANY($1)`, categoryCodes)
	return mapError(err, "transaction", "")
}

const categoryColumns = `code, name, user_code, parent_category_code, created_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(&c.Code, &c.Name, &c.UserCode, &c.ParentCategoryCode, &c.CreatedAt)
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.Code == "" {
		category.Code = utils.NewCode()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO categories (code, name, user_code, parent_category_code, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.q.Exec(ctx, query, category.Code, category.Name, category.UserCode, category.ParentCategoryCode, category.CreatedAt)
	return mapError(err, "category", category.Code)
}

func (s *Store) GetCategory(ctx context.Context, code string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE code = $1`
	c, err := scanCategory(s.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "category", code)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userCode string) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_code = $1 ORDER BY id`
	rows, err := s.q.Query(ctx, query, userCode)
	if err != nil {
		return nil, mapError(err, "category", "")
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapError(err, "category", "")
		}
		categories = append(categories, *c)
	}
	return categories, mapError(rows.Err(), "category", "")
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories SET name = $1, parent_category_code = $2
		WHERE code = $3
		RETURNING ` + categoryColumns
	updated, err := scanCategory(s.q.QueryRow(ctx, query, category.Name, category.ParentCategoryCode, category.Code))
	if err != nil {
		return mapError(err, "category", category.Code)
	}
	*category = *updated
	return nil
}

// DeleteCategory fails with ErrOperationNotPermitted while children or transactions
// still reference the category.
func (s *Store) DeleteCategory(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM categories WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "category", code)
	}
	return affected(tag, "category", code)
}
