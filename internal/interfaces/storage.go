package interfaces

import (
	"context"
	"time"

	"github.com/valeriaulyamaeva/moneymine/models"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	// GetAccount returns the account only if it belongs to userCode.
	GetAccount(ctx context.Context, userCode, code string) (*models.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*models.Account, error)
	ListAccounts(ctx context.Context, userCode string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	UpdateAccountBalance(ctx context.Context, code string, balance float64) error
	DeleteAccount(ctx context.Context, code string) error
	// LockAccount blocks concurrent recomputes of the same account until the unit of work ends.
	LockAccount(ctx context.Context, code string) error
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, code string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, code string) error
	// FilterTransactions returns matches ordered by date, then insertion order.
	FilterTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	ClearTransactionCategory(ctx context.Context, categoryCodes []string) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, code string) (*models.Category, error)
	ListCategories(ctx context.Context, userCode string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, code string) error
}

type AccountConsolidationStore interface {
	FilterByAccountMonth(ctx context.Context, accountCodes []string, month time.Time) ([]models.AccountConsolidation, error)
	// FindAllByAccount returns rows with month in [start, end], ascending. Nil bounds are open.
	FindAllByAccount(ctx context.Context, accountCodes []string, start, end *time.Time) ([]models.AccountConsolidation, error)
	CreateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error
	UpdateAccountConsolidation(ctx context.Context, c *models.AccountConsolidation) error
}

type PortfolioStore interface {
	CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) error
	GetPortfolio(ctx context.Context, userCode, code string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userCode string) ([]models.Portfolio, error)
	ListAllPortfolios(ctx context.Context) ([]models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, portfolio *models.Portfolio) error
	DeletePortfolio(ctx context.Context, code string) error
}

type InvestmentStore interface {
	CreateInvestment(ctx context.Context, investment *models.Investment) error
	GetInvestment(ctx context.Context, code string) (*models.Investment, error)
	// ListInvestments orders by orderBy (a column name, optionally prefixed with "-" for
	// descending), defaulting to purchase_date.
	ListInvestments(ctx context.Context, portfolioCode, orderBy string) ([]models.Investment, error)
	UpdateInvestment(ctx context.Context, investment *models.Investment) error
	DeleteInvestment(ctx context.Context, code string) error
	LockInvestment(ctx context.Context, code string) error
}

type InvestmentTransactionStore interface {
	CreateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error
	GetInvestmentTransaction(ctx context.Context, code string) (*models.InvestmentTransaction, error)
	UpdateInvestmentTransaction(ctx context.Context, tx *models.InvestmentTransaction) error
	DeleteInvestmentTransaction(ctx context.Context, code string) error
	// ListInvestmentTransactions returns the log ordered by date, then insertion order.
	ListInvestmentTransactions(ctx context.Context, investmentCode string) ([]models.InvestmentTransaction, error)
}

type PortfolioConsolidationStore interface {
	// FindPortfolioConsolidation reports found=false, not an error, when no row exists.
	FindPortfolioConsolidation(ctx context.Context, portfolioCode string, date time.Time) (*models.ConsolidatedPortfolio, bool, error)
	CreatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error
	UpdatePortfolioConsolidation(ctx context.Context, c *models.ConsolidatedPortfolio) error
	FilterPortfolioConsolidations(ctx context.Context, portfolioCode string, start, end *time.Time) ([]models.ConsolidatedPortfolio, error)
}

// Store is everything a unit of work can touch.
type Store interface {
	AccountStore
	TransactionStore
	CategoryStore
	AccountConsolidationStore
	PortfolioStore
	InvestmentStore
	InvestmentTransactionStore
	PortfolioConsolidationStore
}

// TxManager runs fn atomically: every write made through the Store passed to fn is
// committed when fn returns nil and discarded otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
	// Reader returns a Store for reads outside a unit of work.
	Reader() Store
}
