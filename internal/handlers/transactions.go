package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

type transactionRequest struct {
	Code         string  `json:"code"`
	AccountCode  string  `json:"account_code"`
	Description  string  `json:"description"`
	CategoryCode *string `json:"category_code"`
	Type         string  `json:"type"`
	Date         string  `json:"date"`
	Value        float64 `json:"value"`
}

// model converts the request. An empty date becomes dateFallback.
func (r transactionRequest) model(dateFallback time.Time) (*models.Transaction, error) {
	date, err := parseDay(r.Date, dateFallback)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		Code:         r.Code,
		AccountCode:  r.AccountCode,
		Description:  r.Description,
		CategoryCode: r.CategoryCode,
		Type:         models.TransactionType(r.Type),
		Date:         date,
		Value:        r.Value,
	}, nil
}

func (h *Handler) bindTransaction(c *gin.Context, dateFallback time.Time) (*models.Transaction, bool) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid transaction: %v", err)
		return nil, false
	}
	tx, err := req.model(dateFallback)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return tx, true
}

// FilterTransactions handles GET /transactions?account_code=&category_code=&start_date=&end_date=
func (h *Handler) FilterTransactions(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	filter, ok := h.transactionFilter(c, userCode)
	if !ok {
		return
	}
	if len(filter.AccountCodes) == 0 {
		c.JSON(http.StatusOK, []models.Transaction{})
		return
	}

	txs, err := h.finance.FilterTransactions(c.Request.Context(), userCode, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(txs))
}

func (h *Handler) transactionFilter(c *gin.Context, userCode string) (models.TransactionFilter, bool) {
	var filter models.TransactionFilter
	var err error
	if filter.Start, err = dateQuery(c, "start_date"); err != nil {
		h.fail(c, err)
		return filter, false
	}
	if filter.End, err = dateQuery(c, "end_date"); err != nil {
		h.fail(c, err)
		return filter, false
	}
	if filter.AccountCodes, err = h.accountCodes(c, userCode); err != nil {
		h.fail(c, err)
		return filter, false
	}
	filter.CategoryCodes = listQuery(c, "category_code")
	return filter, true
}

// GroupByCategory handles GET /transactions/grouped-by-category.
func (h *Handler) GroupByCategory(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	filter, ok := h.transactionFilter(c, userCode)
	if !ok {
		return
	}
	if len(filter.AccountCodes) == 0 {
		c.JSON(http.StatusOK, []models.CategoryTotal{})
		return
	}

	started := time.Now()
	totals, err := h.finance.GroupByRootCategory(c.Request.Context(), userCode, filter.AccountCodes, filter.Start, filter.End)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Debug().Int("groups", len(totals)).Dur("elapsed", time.Since(started)).Msg("transactions grouped")
	c.JSON(http.StatusOK, nonNil(totals))
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	tx, ok := h.bindTransaction(c, utils.Today())
	if !ok {
		return
	}
	created, err := h.finance.CreateTransaction(c.Request.Context(), userCode, tx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	tx, err := h.finance.GetTransaction(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	tx, ok := h.bindTransaction(c, time.Time{}) // zero keeps the stored date
	if !ok {
		return
	}
	updated, err := h.finance.UpdateTransaction(c.Request.Context(), userCode, c.Param("code"), tx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	if err := h.finance.DeleteTransaction(c.Request.Context(), userCode, c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
