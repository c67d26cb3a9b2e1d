package sandbox

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kapi/internal/rest"
)

// Handlers serves the emulated exchange endpoints
type Handlers struct {
	exchange *exchange
	now      func() time.Time
}

// ServerTime returns the sandbox clock
func (h *Handlers) ServerTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := h.now().UTC()
		c.JSON(http.StatusOK, resultResponse(gin.H{
			"unixtime": now.Unix(),
			"rfc1123":  now.Format("Mon, 02 Jan 06 15:04:05 -0700"),
		}))
	}
}

// Ticker returns the ticker of one pair, keyed by its resolved symbol
func (h *Handlers) Ticker() gin.HandlerFunc {
	return func(c *gin.Context) {
		pair := c.Query("pair")
		if pair == "" {
			c.JSON(http.StatusOK, errorResponse(CodeInvalidArgs))
			return
		}

		market, ok := h.exchange.ticker(pair)
		if !ok {
			c.JSON(http.StatusOK, errorResponse(rest.CodeUnknownPair))
			return
		}

		c.JSON(http.StatusOK, resultResponse(map[string]TickerInfo{
			market.Symbol: market.Ticker,
		}))
	}
}

// OpenOrders authenticates a signed request and returns the account's orders
func (h *Handlers) OpenOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusOK, errorResponse(CodeInvalidArgs))
			return
		}

		acc, form, code := h.exchange.authenticate(
			c.GetHeader("API-Key"),
			c.GetHeader("API-Sign"),
			c.Request.URL.Path,
			string(body),
		)
		if code != "" {
			c.JSON(http.StatusOK, errorResponse(code))
			return
		}

		open := h.exchange.openOrders(acc, form.Get("trades") == "true")
		c.JSON(http.StatusOK, resultResponse(gin.H{"open": open}))
	}
}

// UnknownMethod answers every route the sandbox does not serve
func (h *Handlers) UnknownMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse(rest.CodeUnknownMethod))
	}
}
