package api

import (
	"errors"
	"net/http"
	"time"

	"CryptoCompass/internal/domain/models"
	domrepo "CryptoCompass/internal/domain/repository"
	"CryptoCompass/pkg/cache"
	xhttp "CryptoCompass/pkg/http"
	xlogger "CryptoCompass/pkg/logger"

	"github.com/labstack/echo/v4"
)

const relayFailureMessage = "Failed to fetch cryptocurrency data"

// RelayHandler forwards the listing query upstream and mirrors the upstream
// body verbatim. Bodies are cached per limit for the configured TTL.
type RelayHandler struct {
	logger       *xlogger.Logger
	source       domrepo.MarketData
	cache        cache.Service
	ttl          time.Duration
	cacheControl string
	defaultLimit int
	middleware   []echo.MiddlewareFunc
}

type RelayConfig struct {
	CacheTTL     time.Duration
	CacheControl string
	DefaultLimit int
}

func NewRelayHandler(logger *xlogger.Logger, source domrepo.MarketData, c cache.Service, cfg RelayConfig, mw ...echo.MiddlewareFunc) *RelayHandler {
	return &RelayHandler{
		logger:       logger,
		source:       source,
		cache:        c,
		ttl:          cfg.CacheTTL,
		cacheControl: cfg.CacheControl,
		defaultLimit: cfg.DefaultLimit,
		middleware:   mw,
	}
}

func (h *RelayHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/prices", h.Prices, h.middleware...)
}

func (h *RelayHandler) Prices(c echo.Context) error {
	req := &models.RelayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Limit == 0 {
		req.Limit = h.defaultLimit
	}

	ctx := c.Request().Context()
	key := cache.GenerateKeyWithParams("relay", "markets", req.Limit)
	if h.cache != nil {
		var body []byte
		err := h.cache.Get(ctx, key, &body)
		if err == nil {
			return h.write(c, body, "HIT")
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("relay cache read failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}

	body, err := h.source.ListMarketsRaw(ctx, req.Limit)
	if err != nil {
		h.logger.Error("relay upstream error", xlogger.Int("limit", req.Limit), xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": relayFailureMessage})
	}
	if h.cache != nil && h.ttl > 0 {
		if err := h.cache.Set(ctx, key, body, h.ttl); err != nil {
			h.logger.Warn("relay cache write failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	return h.write(c, body, "MISS")
}

func (h *RelayHandler) write(c echo.Context, body []byte, cacheStatus string) error {
	if h.cacheControl != "" {
		c.Response().Header().Set(echo.HeaderCacheControl, h.cacheControl)
	}
	c.Response().Header().Set("X-Cache", cacheStatus)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}
