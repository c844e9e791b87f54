//go:build integration

package database_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/valeriaulyamaeva/moneymine/internal/database"
	"github.com/valeriaulyamaeva/moneymine/internal/interfaces"
	"github.com/valeriaulyamaeva/moneymine/internal/logger"
	"github.com/valeriaulyamaeva/moneymine/internal/services/finance"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
	"github.com/valeriaulyamaeva/moneymine/models"
)

var (
	pgOnce      sync.Once
	pgContainer testcontainers.Container
	pgConnStr   string
	pgErr       error
)

func startPostgres() {
	pgOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "moneymine",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			pgErr = fmt.Errorf("get postgres port: %w", err)
			return
		}

		pgContainer = container
		pgConnStr = fmt.Sprintf("postgres://postgres:postgres@%s:%s/moneymine?sslmode=disable", host, port.Port())
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func openDB(t *testing.T) *database.DB {
	t.Helper()
	startPostgres()
	if pgErr != nil {
		t.Fatalf("postgres container failed: %v", pgErr)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, pgConnStr, 4)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Migrate(context.Background()))
}

func TestAccountTransactionsRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	svc := finance.NewService(db, logger.NewSilent())

	account, err := svc.CreateAccount(ctx, "u-acc", &models.Account{Name: "Checking"})
	require.NoError(t, err)

	for _, tx := range []models.Transaction{
		{AccountCode: account.Code, Type: models.TransactionDeposit, Date: date("2024-01-05"), Value: 100.50},
		{AccountCode: account.Code, Type: models.TransactionWithdrawal, Date: date("2024-01-20"), Value: -25.50},
		{AccountCode: account.Code, Type: models.TransactionDeposit, Date: date("2024-02-01"), Value: 20},
	} {
		_, err := svc.CreateTransaction(ctx, "u-acc", &tx)
		require.NoError(t, err)
	}

	got, err := svc.GetAccount(ctx, "u-acc", account.Code)
	require.NoError(t, err)
	assert.Equal(t, 95.0, got.Balance)

	cons, err := svc.ListConsolidations(ctx, "u-acc", []string{account.Code}, nil, nil)
	require.NoError(t, err)
	require.Len(t, cons, 2)
	assert.Equal(t, 75.0, cons[0].Balance)
	assert.Equal(t, 20.0, cons[1].Balance)
	assert.True(t, cons[0].Month.Equal(date("2024-01-01")))

	_, err = svc.GetAccount(ctx, "someone-else", account.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRolledBackUnitOfWorkLeavesNoRows(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	account := &models.Account{Name: "Rollback", UserCode: "u-rb"}
	err := db.WithinTx(ctx, func(st interfaces.Store) error {
		if err := st.CreateAccount(ctx, account); err != nil {
			return err
		}
		return models.NotPermitted("abort")
	})
	require.ErrorIs(t, err, models.ErrOperationNotPermitted)

	_, err = db.Reader().GetAccountByCode(ctx, account.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCategoryDeleteIsGuardedByForeignKey(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	st := db.Reader()

	parent := &models.Category{Name: "Parent", UserCode: "u-cat"}
	require.NoError(t, st.CreateCategory(ctx, parent))
	child := &models.Category{Name: "Child", UserCode: "u-cat", ParentCategoryCode: &parent.Code}
	require.NoError(t, st.CreateCategory(ctx, child))

	err := st.DeleteCategory(ctx, parent.Code)
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)

	require.NoError(t, st.DeleteCategory(ctx, child.Code))
	require.NoError(t, st.DeleteCategory(ctx, parent.Code))

	err = st.DeleteCategory(ctx, parent.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInvestmentPositionAndSnapshots(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	svc := investment.NewService(db, nil, logger.NewSilent())

	portfolio, err := svc.CreatePortfolio(ctx, "u-inv", &models.Portfolio{Name: "Long term"})
	require.NoError(t, err)

	inv, err := svc.CreateInvestment(ctx, "u-inv", portfolio.Code, &models.Investment{
		AssetType:     models.AssetStock,
		Ticker:        "ITSA4",
		Quantity:      10,
		PurchasePrice: 10,
		PurchaseDate:  date("2024-01-10"),
	})
	require.NoError(t, err)

	_, pos, err := svc.CreateInvestmentTransaction(ctx, "u-inv", portfolio.Code, inv.Code, &models.InvestmentTransaction{
		Type:     models.InvestmentBuy,
		Date:     date("2024-02-10"),
		Quantity: 10,
		Price:    25,
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, pos.Quantity)
	assert.Equal(t, 17.5, pos.PurchasePrice)
	assert.Equal(t, 25.0, pos.CurrentPrice())

	_, _, err = svc.CreateInvestmentTransaction(ctx, "u-inv", portfolio.Code, inv.Code, &models.InvestmentTransaction{
		Type:     models.InvestmentSell,
		Date:     date("2024-03-10"),
		Quantity: 50,
		Price:    30,
	})
	assert.ErrorIs(t, err, models.ErrOperationNotPermitted)

	txs, err := svc.ListInvestmentTransactions(ctx, "u-inv", portfolio.Code, inv.Code)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	for i := 0; i < 2; i++ {
		_, err := svc.ConsolidatePortfolio(ctx, "u-inv", portfolio.Code)
		require.NoError(t, err)
	}
	snaps, err := svc.ListPortfolioConsolidations(ctx, "u-inv", portfolio.Code, nil, nil)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 500.0, snaps[0].Balance)
	assert.Equal(t, 350.0, snaps[0].AmountInvested)

	require.NoError(t, svc.DeletePortfolio(ctx, "u-inv", portfolio.Code))
	_, err = db.Reader().GetInvestment(ctx, inv.Code)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
