package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valeriaulyamaeva/moneymine/models"
)

type investmentRequest struct {
	Code                string   `json:"code"`
	AssetType           string   `json:"asset_type"`
	Ticker              string   `json:"ticker"`
	Quantity            float64  `json:"quantity"`
	PurchasePrice       float64  `json:"purchase_price"`
	CurrentAveragePrice *float64 `json:"current_average_price"`
	PurchaseDate        string   `json:"purchase_date"`
}

func (r investmentRequest) model() (*models.Investment, error) {
	date, err := parseDay(r.PurchaseDate, time.Time{})
	if err != nil {
		return nil, err
	}
	return &models.Investment{
		Code:                r.Code,
		AssetType:           models.AssetType(r.AssetType),
		Ticker:              r.Ticker,
		Quantity:            r.Quantity,
		PurchasePrice:       r.PurchasePrice,
		CurrentAveragePrice: r.CurrentAveragePrice,
		PurchaseDate:        date,
	}, nil
}

type investmentTransactionRequest struct {
	Code     string  `json:"code"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

func (r investmentTransactionRequest) model(dateFallback time.Time) (*models.InvestmentTransaction, error) {
	date, err := parseDay(r.Date, dateFallback)
	if err != nil {
		return nil, err
	}
	return &models.InvestmentTransaction{
		Code:     r.Code,
		Type:     models.InvestmentTransactionType(r.Type),
		Date:     date,
		Quantity: r.Quantity,
		Price:    r.Price,
	}, nil
}

// positionResponse pairs a logged transaction with the position it produced.
type positionResponse struct {
	Transaction *models.InvestmentTransaction `json:"transaction,omitempty"`
	Investment  *models.Investment            `json:"investment"`
}

func (h *Handler) bindInvestment(c *gin.Context) (*models.Investment, bool) {
	var req investmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid investment: %v", err)
		return nil, false
	}
	inv, err := req.model()
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return inv, true
}

func (h *Handler) bindInvestmentTransaction(c *gin.Context, dateFallback time.Time) (*models.InvestmentTransaction, bool) {
	var req investmentTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid investment transaction: %v", err)
		return nil, false
	}
	tx, err := req.model(dateFallback)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return tx, true
}

func (h *Handler) ListInvestments(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	invs, err := h.investments.ListInvestments(c.Request.Context(), userCode, c.Param("code"), c.Query("order_by"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

func (h *Handler) CreateInvestment(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	inv, ok := h.bindInvestment(c)
	if !ok {
		return
	}
	created, err := h.investments.CreateInvestment(c.Request.Context(), userCode, c.Param("code"), inv)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetInvestment(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	inv, err := h.investments.GetInvestment(c.Request.Context(), userCode, c.Param("code"), c.Param("investment"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) UpdateInvestment(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	changes, ok := h.bindInvestment(c)
	if !ok {
		return
	}
	inv, err := h.investments.UpdateInvestment(c.Request.Context(), userCode, c.Param("code"), c.Param("investment"), changes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvestment(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	if err := h.investments.DeleteInvestment(c.Request.Context(), userCode, c.Param("code"), c.Param("investment")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListInvestmentTransactions(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	txs, err := h.investments.ListInvestmentTransactions(c.Request.Context(), userCode, c.Param("code"), c.Param("investment"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) CreateInvestmentTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	tx, ok := h.bindInvestmentTransaction(c, time.Now())
	if !ok {
		return
	}
	created, position, err := h.investments.CreateInvestmentTransaction(c.Request.Context(), userCode, c.Param("code"), c.Param("investment"), tx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, positionResponse{Transaction: created, Investment: position})
}

func (h *Handler) UpdateInvestmentTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	tx, ok := h.bindInvestmentTransaction(c, time.Time{}) // zero keeps the stored date
	if !ok {
		return
	}
	updated, position, err := h.investments.UpdateInvestmentTransaction(c.Request.Context(), userCode,
		c.Param("code"), c.Param("investment"), c.Param("tx"), tx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, positionResponse{Transaction: updated, Investment: position})
}

func (h *Handler) DeleteInvestmentTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	position, err := h.investments.DeleteInvestmentTransaction(c.Request.Context(), userCode,
		c.Param("code"), c.Param("investment"), c.Param("tx"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, positionResponse{Investment: position})
}
