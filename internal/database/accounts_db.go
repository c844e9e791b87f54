package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

const accountColumns = `code, name, description, user_code, balance, created_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.Code, &a.Name, &a.Description, &a.UserCode, &a.Balance, &a.CreatedAt)
	return a, err
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.Code == "" {
		account.Code = utils.NewCode()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO accounts (code, name, description, user_code, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.q.Exec(ctx, query, account.Code, account.Name, account.Description, account.UserCode, account.Balance, account.CreatedAt)
	return mapError(err, "account", account.Code)
}

func (s *Store) GetAccount(ctx context.Context, userCode, code string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1 AND user_code = $2`
	a, err := scanAccount(s.q.QueryRow(ctx, query, code, userCode))
	if err != nil {
		return nil, mapError(err, "account", code)
	}
	return a, nil
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1`
	a, err := scanAccount(s.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapError(err, "account", code)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userCode string) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_code = $1 ORDER BY id`
	rows, err := s.q.Query(ctx, query, userCode)
	if err != nil {
		return nil, mapError(err, "account", "")
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "account", "")
		}
		accounts = append(accounts, *a)
	}
	return accounts, mapError(rows.Err(), "account", "")
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts SET name = $1, description = $2
		WHERE code = $3
		RETURNING ` + accountColumns
	updated, err := scanAccount(s.q.QueryRow(ctx, query, account.Name, account.Description, account.Code))
	if err != nil {
		return mapError(err, "account", account.Code)
	}
	*account = *updated
	return nil
}

func (s *Store) UpdateAccountBalance(ctx context.Context, code string, balance float64) error {
	tag, err := s.q.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE code = $2`, balance, code)
	if err != nil {
		return mapError(err, "account", code)
	}
	return affected(tag, "account", code)
}

// DeleteAccount removes the account; its transactions and consolidations go with it.
func (s *Store) DeleteAccount(ctx context.Context, code string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE code = $1`, code)
	if err != nil {
		return mapError(err, "account", code)
	}
	return affected(tag, "account", code)
}

func (s *Store) LockAccount(ctx context.Context, code string) error {
	return s.lock(ctx, "accounts", "account", code)
}

const consolidationColumns = `account_code, month, balance`

func (s *Store) scanAccountConsolidations(ctx context.Context, query string, args ...any) ([]models.AccountConsolidation, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "account consolidation", "")
	}
	defer rows.Close()

	var out []models.AccountConsolidation
	for rows.Next() {
		var c models.AccountConsolidation
		if err := rows.Scan(&c.AccountCode, &c.Month, &c.Balance); err != nil {
			return nil, mapError(err, "account consolidation", "")
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err(), "account consolidation", "")
}

func (s *Store) FilterByAccountMonth(ctx context.Context, accountCodes []string, month time.Time) ([]models.AccountConsolidation, error) {
	query := `
		SELECT ` + consolidationColumns + ` FROM account_consolidations
		WHERE account_code = ANY($1) AND month = $2
		ORDER BY id`
	return s.scanAccountConsolidations(ctx, query, accountCodes, utils.FirstDayOfMonth(month))
}

func (s *Store) FindAllByAccount(ctx context.Context, accountCodes []string, start, end *time.Time) ([]models.AccountConsolidation, error) {
	query := `
		SELECT ` + consolidationColumns + ` FROM account_consolidations
		WHERE account_code = ANY($1)
		  AND ($2::date IS NULL OR month >= $2)
		  AND ($3::date IS NULL OR month <= $3)
		ORDER BY month, id`
	return s.scanAccountConsolidations(ctx, query, accountCodes, start, end)
}

func (s *Store) CreateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error {
	query := `INSERT INTO account_consolidations (account_code, month, balance) VALUES ($1, $2, $3)`
	_, err := s.q.Exec(ctx, query, c.AccountCode, c.Month, c.Balance)
	return mapError(err, "account consolidation", c.AccountCode)
}

func (s *Store) UpdateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error {
	query := `UPDATE account_consolidations SET balance = $1 WHERE account_code = $2 AND month = $3`
	tag, err := s.q.Exec(ctx, query, c.Balance, c.AccountCode, c.Month)
	if err != nil {
		return mapError(err, "account consolidation", c.AccountCode)
	}
	return affected(tag, "account consolidation", c.AccountCode)
}
