// Package handlers exposes the finance and investment services as a gin JSON API.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/services/finance"
	"github.com/valeriaulyamaeva/moneymine/internal/services/investment"
	"github.com/valeriaulyamaeva/moneymine/models"
	"github.com/valeriaulyamaeva/moneymine/utils"
)

// UserHeader carries the caller's user code. There is no authentication; the header
// is trusted as is.
const UserHeader = "X-User-Code"

type Handler struct {
	finance     *finance.Service
	investments *investment.Service
	log         zerolog.Logger
}

func New(finance *finance.Service, investments *investment.Service, log zerolog.Logger) *Handler {
	return &Handler{finance: finance, investments: investments, log: log}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrOperationNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransactionType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidHierarchy):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

// user reads the caller from the header, answering 400 when it is missing.
func user(c *gin.Context) (string, bool) {
	code := strings.TrimSpace(c.GetHeader(UserHeader))
	if code == "" {
		badRequest(c, "missing %s header", UserHeader)
		return "", false
	}
	return code, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

// monthQuery parses an optional YYYY-MM query parameter.
func monthQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseMonth(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

// listQuery accepts both repeated and comma separated values.
func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseDay parses a request body date, using fallback when raw is empty.
func parseDay(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return utils.ParseDate(raw)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
