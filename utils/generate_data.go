package utils

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/valeriaulyamaeva/moneymine/models"
)

// Generator builds plausible demo data. The same seed yields the same data.
type Generator struct {
	faker *gofakeit.Faker
}

func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

func (g *Generator) Accounts(n int) []models.Account {
	accounts := make([]models.Account, 0, n)
	for i := 0; i < n; i++ {
		description := g.faker.Sentence(4)
		accounts = append(accounts, models.Account{
			Name:        g.faker.Company() + " " + g.faker.RandomString([]string{"Checking", "Savings", "Credit"}),
			Description: &description,
		})
	}
	return accounts
}

// Categories returns one group per root category: the root first, then up to perRoot
// children. Callers store the root and point the children at its code.
func (g *Generator) Categories(roots, perRoot int) [][]models.Category {
	tree := make([][]models.Category, 0, roots)
	for i := 0; i < roots; i++ {
		group := []models.Category{{Name: title(g.faker.Noun())}}
		for j := g.faker.Number(0, perRoot); j > 0; j-- {
			group = append(group, models.Category{Name: title(g.faker.Noun())})
		}
		tree = append(tree, group)
	}
	return tree
}

// Transactions spreads n transactions over [from, to]. Roughly one in four is a
// deposit; the rest are withdrawals, optionally categorized.
func (g *Generator) Transactions(accountCode string, categoryCodes []string, n int, from, to time.Time) []models.Transaction {
	txs := make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := models.Transaction{
			AccountCode: accountCode,
			Description: g.faker.Sentence(3),
			Date:        Day(g.faker.DateRange(from, to)),
		}
		if g.faker.Number(1, 4) == 1 {
			tx.Type = models.TransactionDeposit
			tx.Value = g.faker.Price(500, 5000)
		} else {
			tx.Type = models.TransactionWithdrawal
			tx.Value = -g.faker.Price(5, 800)
			if len(categoryCodes) > 0 && g.faker.Bool() {
				code := categoryCodes[g.faker.Number(0, len(categoryCodes)-1)]
				tx.CategoryCode = &code
			}
		}
		txs = append(txs, tx)
	}
	return txs
}

var (
	stockTickers = []string{"PETR4", "VALE3", "ITUB4", "BBDC4", "WEGE3", "ABEV3"}
	reitTickers  = []string{"HGLG11", "KNRI11", "MXRF11", "XPLG11"}
	bondTickers  = []string{"TESOURO-SELIC", "CDB-BANCO", "LCI-IMOB"}
)

// Investments returns n opening positions bought between from and to.
func (g *Generator) Investments(n int, from, to time.Time) []models.Investment {
	invs := make([]models.Investment, 0, n)
	for i := 0; i < n; i++ {
		inv := models.Investment{PurchaseDate: Day(g.faker.DateRange(from, to))}
		switch g.faker.Number(0, 2) {
		case 0:
			inv.AssetType = models.AssetStock
			inv.Ticker = g.faker.RandomString(stockTickers)
			inv.Quantity = float64(g.faker.Number(1, 200))
			inv.PurchasePrice = g.faker.Price(5, 80)
		case 1:
			inv.AssetType = models.AssetREIT
			inv.Ticker = g.faker.RandomString(reitTickers)
			inv.Quantity = float64(g.faker.Number(1, 100))
			inv.PurchasePrice = g.faker.Price(8, 180)
		default:
			inv.AssetType = models.AssetFixedIncome
			inv.Ticker = g.faker.RandomString(bondTickers)
			inv.PurchasePrice = g.faker.Price(1000, 20000)
		}
		invs = append(invs, inv)
	}
	return invs
}

// FollowUp returns a later transaction that keeps the position valid: a BUY for
// tradable assets, INTEREST for fixed income.
func (g *Generator) FollowUp(inv models.Investment, to time.Time) models.InvestmentTransaction {
	tx := models.InvestmentTransaction{
		InvestmentCode: inv.Code,
		Date:           Day(g.faker.DateRange(inv.PurchaseDate, to)),
	}
	if inv.AssetType.Tradable() {
		tx.Type = models.InvestmentBuy
		tx.Quantity = float64(g.faker.Number(1, 50))
		tx.Price = g.faker.Price(inv.PurchasePrice*0.8, inv.PurchasePrice*1.2)
		return tx
	}
	tx.Type = models.InvestmentInterest
	tx.Price = g.faker.Price(10, inv.PurchasePrice*0.05+10)
	return tx
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
