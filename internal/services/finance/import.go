package finance

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

const importSeparator = ";"

// ParseImport reads "date;description;amount" rows. Amounts use a comma as decimal
// separator and may carry dots as thousands separators. A first line whose date and
// amount both fail to parse is taken as a header.
func ParseImport(r io.Reader, accountCode string) ([]models.Transaction, error) {
	var txs []models.Transaction

	scanner := bufio.NewScanner(r)
	line := 0
	first := true
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if text == "" {
			continue
		}

		fields := strings.Split(text, importSeparator)
		if first {
			first = false
			if isHeader(fields) {
				continue
			}
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected 3 fields, got %d", models.ErrInvalidInput, line, len(fields))
		}

		date, err := utils.ParseDate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := parseAmount(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		txType := models.TransactionDeposit
		if value < 0 {
			txType = models.TransactionWithdrawal
		}
		txs = append(txs, models.Transaction{
			AccountCode: accountCode,
			Description: strings.TrimSpace(fields[1]),
			Type:        txType,
			Date:        date,
			Value:       value,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	return txs, nil
}

func isHeader(fields []string) bool {
	if _, err := utils.ParseDate(fields[0]); err == nil {
		return false
	}
	if len(fields) != 3 {
		return false
	}
	_, err := parseAmount(fields[2])
	return err != nil
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.Replace(normalized, ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", models.ErrInvalidInput, s)
	}
	return d.Round(2).InexactFloat64(), nil
}

// BulkImport inserts every row as an uncategorized transaction of the account, then
// refreshes the balance once and each touched month once. Nothing is written when any
// row is invalid.
func (s *Service) BulkImport(ctx context.Context, userCode, accountCode string, r io.Reader) ([]models.Transaction, error) {
	txs, err := ParseImport(r, accountCode)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	err = s.tx.WithinTx(ctx, func(st interfaces.Store) error {
		if _, err := st.GetAccount(ctx, userCode, accountCode); err != nil {
			return err
		}
		if err := st.LockAccount(ctx, accountCode); err != nil {
			return err
		}

		touched := make([]accountMonth, 0, len(txs))
		for i := range txs {
			if err := st.CreateTransaction(ctx, &txs[i]); err != nil {
				return err
			}
			touched = append(touched, accountMonth{accountCode, txs[i].Date})
		}
		return refresh(ctx, st, touched)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_code", accountCode).
		Int("rows", len(txs)).
		Dur("elapsed", time.Since(started)).
		Msg("transactions imported")
	return txs, nil
}
