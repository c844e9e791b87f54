package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/valeriaulyamaeva/moneymine/internal/handlers"
	"github.com/valeriaulyamaeva/moneymine/internal/logger"
)

// CORSMiddleware answers preflight requests and echoes allowed origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] || allowed["*"] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+handlers.UserHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request and puts the logger in the request context.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("user_code", c.GetHeader(handlers.UserHeader)).
			Msg("HTTP request")
	}
}

func SetupRouter(h *handlers.Handler, origins []string, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), CORSMiddleware(origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/accounts", h.ListAccounts)
	r.POST("/accounts", h.CreateAccount)
	r.GET("/accounts/:code", h.GetAccount)
	r.PUT("/accounts/:code", h.UpdateAccount)
	r.DELETE("/accounts/:code", h.DeleteAccount)
	r.POST("/accounts/:code/import", h.ImportTransactions)

	r.GET("/transactions", h.FilterTransactions)
	r.POST("/transactions", h.CreateTransaction)
	r.GET("/transactions/grouped-by-category", h.GroupByCategory)
	r.GET("/transactions/:code", h.GetTransaction)
	r.PUT("/transactions/:code", h.UpdateTransaction)
	r.DELETE("/transactions/:code", h.DeleteTransaction)

	r.GET("/categories", h.ListCategories)
	r.POST("/categories", h.CreateCategory)
	r.GET("/categories/:code", h.GetCategory)
	r.PUT("/categories/:code", h.UpdateCategory)
	r.DELETE("/categories/:code", h.DeleteCategory)

	r.GET("/consolidations", h.ListConsolidations)

	r.GET("/portfolios", h.ListPortfolios)
	r.POST("/portfolios", h.CreatePortfolio)

	portfolio := r.Group("/portfolios/:code")
	portfolio.GET("", h.GetPortfolio)
	portfolio.PUT("", h.UpdatePortfolio)
	portfolio.DELETE("", h.DeletePortfolio)
	portfolio.GET("/overview", h.Overview)
	portfolio.GET("/diversification", h.Diversification)
	portfolio.PUT("/prices", h.UpdatePrices)
	portfolio.POST("/consolidate", h.ConsolidatePortfolio)
	portfolio.GET("/consolidations", h.ListPortfolioConsolidations)

	portfolio.GET("/investments", h.ListInvestments)
	portfolio.POST("/investments", h.CreateInvestment)
	portfolio.GET("/investments/:investment", h.GetInvestment)
	portfolio.PUT("/investments/:investment", h.UpdateInvestment)
	portfolio.DELETE("/investments/:investment", h.DeleteInvestment)
	portfolio.GET("/investments/:investment/transactions", h.ListInvestmentTransactions)
	portfolio.POST("/investments/:investment/transactions", h.CreateInvestmentTransaction)
	portfolio.PUT("/investments/:investment/transactions/:tx", h.UpdateInvestmentTransaction)
	portfolio.DELETE("/investments/:investment/transactions/:tx", h.DeleteInvestmentTransaction)

	return r
}
