package models

import "time"

type Account struct {
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	UserCode    string    `json:"user_code" db:"user_code"`
	Balance     float64   `json:"balance" db:"balance"` // derived from transactions, never authoritative
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AccountConsolidation is the cached balance of one account for one calendar month.
// Month is always the first day of the month.
type AccountConsolidation struct {
	AccountCode string    `json:"account_code" db:"account_code"`
	Month       time.Time `json:"month" db:"month"`
	Balance     float64   `json:"balance" db:"balance"`
}
