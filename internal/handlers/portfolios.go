package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valeriaulyamaeva/moneymine/models"
)

type portfolioRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r portfolioRequest) model() *models.Portfolio {
	return &models.Portfolio{Code: r.Code, Name: r.Name, Description: r.Description}
}

func (h *Handler) ListPortfolios(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	portfolios, err := h.investments.ListPortfolios(c.Request.Context(), userCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(portfolios))
}

func (h *Handler) CreatePortfolio(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid portfolio: %v", err)
		return
	}
	portfolio, err := h.investments.CreatePortfolio(c.Request.Context(), userCode, req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, portfolio)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	portfolio, err := h.investments.GetPortfolio(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

func (h *Handler) UpdatePortfolio(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid portfolio: %v", err)
		return
	}
	portfolio, err := h.investments.UpdatePortfolio(c.Request.Context(), userCode, c.Param("code"), req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

func (h *Handler) DeletePortfolio(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	if err := h.investments.DeletePortfolio(c.Request.Context(), userCode, c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Overview(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	overview, err := h.investments.Overview(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) Diversification(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	allocation, err := h.investments.Diversification(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(allocation))
}

// UpdatePrices refreshes the current price of every stock and REIT from the quote
// provider.
func (h *Handler) UpdatePrices(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	started := time.Now()
	invs, err := h.investments.UpdatePrices(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Debug().Str("portfolio_code", c.Param("code")).Dur("elapsed", time.Since(started)).Msg("prices refreshed")
	c.JSON(http.StatusOK, nonNil(invs))
}

func (h *Handler) ConsolidatePortfolio(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	snapshot, err := h.investments.ConsolidatePortfolio(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) ListPortfolioConsolidations(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	start, err := dateQuery(c, "start_date")
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := dateQuery(c, "end_date")
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.investments.ListPortfolioConsolidations(c.Request.Context(), userCode, c.Param("code"), start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}
