// Package httpapi serves the read-only query surface over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketwatch/internal/history"
	"marketwatch/internal/market"
	"marketwatch/internal/service"
	"marketwatch/internal/storage"
)

// Queries is the subset of the catalog exposed over HTTP.
type Queries interface {
	Aggregates(ctx context.Context, query, server string) (market.Stats, error)
	History(ctx context.Context, itemName string) ([]market.PricePoint, error)
	Listings(ctx context.Context, filter storage.ListingFilter) ([]market.LiveListing, error)
	TopItems(ctx context.Context, limit int) ([]storage.TopItem, error)
	Servers(ctx context.Context) ([]service.ServerStatus, error)
	Watchlist(ctx context.Context) ([]market.WatchlistItem, error)
	FakeSellers(ctx context.Context) ([]market.FakeSeller, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// APIHandler binds queries to routes.
type APIHandler struct {
	queries   Queries
	pinger    Pinger
	maxPoints int
	logger    zerolog.Logger
}

// NewRouter builds the engine with API routes under /api/v1, /health and, when metrics is non-nil, /metrics.
func NewRouter(queries Queries, pinger Pinger, metrics http.Handler, maxPoints int, logger zerolog.Logger) *gin.Engine {
	h := &APIHandler{
		queries:   queries,
		pinger:    pinger,
		maxPoints: maxPoints,
		logger:    logger.With().Str("component", "httpapi").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/health", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/servers", h.Servers)
		api.GET("/listings", h.Listings)
		api.GET("/items/top", h.TopItems)
		api.GET("/prices", h.Aggregates)
		api.GET("/history", h.History)
		api.GET("/watchlist", h.Watchlist)
		api.GET("/sellers", h.FakeSellers)
	}
	return r
}

func (h *APIHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	}
}

// Health reports database reachability.
func (h *APIHandler) Health(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) Servers(c *gin.Context) {
	servers, err := h.queries.Servers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (h *APIHandler) Listings(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter := storage.ListingFilter{
		Server:   c.Query("server"),
		ItemName: c.Query("search"),
		Sort:     storage.ParseListingSort(c.Query("sort")),
		Offset:   offset,
		Limit:    limit,
	}
	listings, err := h.queries.Listings(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *APIHandler) TopItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	items, err := h.queries.TopItems(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Aggregates answers with null stats when nothing matches.
func (h *APIHandler) Aggregates(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	stats, err := h.queries.Aggregates(c.Request.Context(), query, c.Query("server"))
	if errors.Is(err, market.ErrNoData) {
		c.JSON(http.StatusOK, gin.H{"query": query, "stats": nil})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "stats": stats})
}

func (h *APIHandler) History(c *gin.Context) {
	item := c.Query("item")
	if item == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is required"})
		return
	}
	points, err := h.queries.History(c.Request.Context(), item)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.maxPoints > 0 && len(points) > h.maxPoints {
		points = history.Downsample(points, h.maxPoints)
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "points": points})
}

func (h *APIHandler) Watchlist(c *gin.Context) {
	items, err := h.queries.Watchlist(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *APIHandler) FakeSellers(c *gin.Context) {
	sellers, err := h.queries.FakeSellers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sellers)
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
