package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valeriaulyamaeva/moneymine/models"
)

type accountRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r accountRequest) model() *models.Account {
	return &models.Account{Code: r.Code, Name: r.Name, Description: r.Description}
}

func (h *Handler) ListAccounts(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	accounts, err := h.finance.ListAccounts(c.Request.Context(), userCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(accounts))
}

func (h *Handler) CreateAccount(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid account: %v", err)
		return
	}
	account, err := h.finance.CreateAccount(c.Request.Context(), userCode, req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *Handler) GetAccount(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	account, err := h.finance.GetAccount(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid account: %v", err)
		return
	}
	account, err := h.finance.UpdateAccount(c.Request.Context(), userCode, c.Param("code"), req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	if err := h.finance.DeleteAccount(c.Request.Context(), userCode, c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportTransactions takes a "date;description;amount" text body.
func (h *Handler) ImportTransactions(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	txs, err := h.finance.BulkImport(c.Request.Context(), userCode, c.Param("code"), c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(txs), "transactions": nonNil(txs)})
}

func (h *Handler) ListConsolidations(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	start, err := monthQuery(c, "start_month")
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := monthQuery(c, "end_month")
	if err != nil {
		h.fail(c, err)
		return
	}
	accounts, err := h.accountCodes(c, userCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(accounts) == 0 {
		c.JSON(http.StatusOK, []models.AccountConsolidation{})
		return
	}

	rows, err := h.finance.ListConsolidations(c.Request.Context(), userCode, accounts, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// accountCodes returns the account_code query values, or every account of the user
// when none is given.
func (h *Handler) accountCodes(c *gin.Context, userCode string) ([]string, error) {
	if codes := listQuery(c, "account_code"); len(codes) > 0 {
		return codes, nil
	}
	accounts, err := h.finance.ListAccounts(c.Request.Context(), userCode)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(accounts))
	for _, a := range accounts {
		codes = append(codes, a.Code)
	}
	return codes, nil
}
