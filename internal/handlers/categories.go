package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valeriaulyamaeva/moneymine/models"
)

type categoryRequest struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	ParentCategoryCode *string `json:"parent_category_code"`
}

func (r categoryRequest) model() *models.Category {
	return &models.Category{Code: r.Code, Name: r.Name, ParentCategoryCode: r.ParentCategoryCode}
}

// ListCategories returns every category, or only the children of parent_category_code
// when that parameter is present. An empty value selects the roots.
func (h *Handler) ListCategories(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var parent *string
	if v, present := c.GetQuery("parent_category_code"); present {
		parent = &v
	}
	categories, err := h.finance.ListCategories(c.Request.Context(), userCode, parent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

func (h *Handler) CreateCategory(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid category: %v", err)
		return
	}
	category, err := h.finance.CreateCategory(c.Request.Context(), userCode, req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) GetCategory(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	category, err := h.finance.GetCategory(c.Request.Context(), userCode, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid category: %v", err)
		return
	}
	category, err := h.finance.UpdateCategory(c.Request.Context(), userCode, c.Param("code"), req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes the category and its whole subtree.
func (h *Handler) DeleteCategory(c *gin.Context) {
	userCode, ok := user(c)
	if !ok {
		return
	}
	if err := h.finance.DeleteCategory(c.Request.Context(), userCode, c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
