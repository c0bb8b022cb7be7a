package api

import (
	"errors"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/usecase"
	xhttp "CryptoCompass/pkg/http"
	xlogger "CryptoCompass/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketsHandler serves the formatted listing board.
type MarketsHandler struct {
	logger *xlogger.Logger
	svc    *usecase.MarketService
}

func NewMarketsHandler(logger *xlogger.Logger, svc *usecase.MarketService) *MarketsHandler {
	return &MarketsHandler{logger: logger, svc: svc}
}

func (h *MarketsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/markets")
	g.GET("", h.List)
	g.POST("/refresh", h.Refresh)
	g.PUT("/limit", h.SetLimit)
}

// List returns the current listing. A failed refresh leaves the previous
// rows in place and sets the view's error.
func (h *MarketsHandler) List(c echo.Context) error {
	req := &models.MarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.View(req.Mode))
}

// Refresh fetches the listing now. Fetch failures are reported in the view,
// not as an HTTP error, so the caller still gets the retained rows.
func (h *MarketsHandler) Refresh(c echo.Context) error {
	req := &models.MarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.svc.Refresh(c.Request().Context(), req.Mode)
	if err != nil && !errors.Is(err, models.ErrFetchFailure) {
		h.logger.Error("markets refresh error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *MarketsHandler) SetLimit(c echo.Context) error {
	req := &models.ListingLimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.svc.SetLimit(c.Request().Context(), req.Limit, req.Mode)
	if err != nil && !errors.Is(err, models.ErrFetchFailure) {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, view)
}
