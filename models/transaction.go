package models

import (
	"fmt"
	"strings"
	"time"
)

type TransactionType string

const (
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionDeposit    TransactionType = "DEPOSIT"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionTransfer, TransactionWithdrawal, TransactionDeposit:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidTransactionType, s)
}

type Transaction struct {
	Code         string          `json:"code" db:"code"`
	AccountCode  string          `json:"account_code" db:"account_code"`
	Description  string          `json:"description" db:"description"`
	CategoryCode *string         `json:"category_code,omitempty" db:"category_code"`
	Type         TransactionType `json:"type" db:"type"`
	Date         time.Time       `json:"date" db:"date"`
	Value        float64         `json:"value" db:"value"`
}

// TransactionFilter selects transactions of the given accounts. Empty CategoryCodes
// means any category; nil dates leave that side of the range open.
type TransactionFilter struct {
	AccountCodes  []string
	CategoryCodes []string
	Start         *time.Time
	End           *time.Time
}
