package api

import (
	"fmt"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/usecase"
	xhttp "CryptoCompass/pkg/http"
	xlogger "CryptoCompass/pkg/logger"
	"CryptoCompass/pkg/util"

	"github.com/labstack/echo/v4"
)

type SimulatorHandler struct {
	logger     *xlogger.Logger
	svc        *usecase.SimulationService
	middleware []echo.MiddlewareFunc
}

func NewSimulatorHandler(logger *xlogger.Logger, svc *usecase.SimulationService, mw ...echo.MiddlewareFunc) *SimulatorHandler {
	return &SimulatorHandler{logger: logger, svc: svc, middleware: mw}
}

func (h *SimulatorHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/simulator")
	g.GET("/options", h.Options)
	g.GET("", h.Simulate, h.middleware...)
}

func (h *SimulatorHandler) Options(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Options())
}

func (h *SimulatorHandler) Simulate(c echo.Context) error {
	req := &models.SimulationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	amount := util.ParseAmount(req.Amount)
	if amount <= 0 {
		return xhttp.AppErrorResponse(c, toAppError(fmt.Errorf("%w: %q", models.ErrInvalidAmount, req.Amount)))
	}

	report, err := h.svc.Run(c.Request().Context(), req.Asset, req.Days, amount)
	if err != nil {
		h.logger.Warn("simulation failed",
			xlogger.String("asset", req.Asset),
			xlogger.Int("days", req.Days),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, report)
}
