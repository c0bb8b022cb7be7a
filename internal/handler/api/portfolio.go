package api

import (
	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/usecase"
	xhttp "CryptoCompass/pkg/http"
	xlogger "CryptoCompass/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PortfolioHandler struct {
	logger  *xlogger.Logger
	catalog *models.Catalog
	svc     *usecase.AllocationService
}

func NewPortfolioHandler(logger *xlogger.Logger, catalog *models.Catalog, svc *usecase.AllocationService) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, catalog: catalog, svc: svc}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/portfolio")
	g.GET("/templates", h.Templates)
	g.GET("/allocation", h.Allocation)
}

type templatesResponse struct {
	Templates       []models.AllocationTemplate `json:"templates"`
	DefaultTemplate string                      `json:"default_template"`
	Presets         []float64                   `json:"presets"`
}

func (h *PortfolioHandler) Templates(c echo.Context) error {
	return xhttp.SuccessResponse(c, templatesResponse{
		Templates:       h.svc.Templates(),
		DefaultTemplate: h.catalog.DefaultTemplate,
		Presets:         append([]float64(nil), h.catalog.PortfolioPresets...),
	})
}

// Allocation splits amount across a template using the latest prices. A bad
// amount yields an empty allocation list, not an error.
func (h *PortfolioHandler) Allocation(c echo.Context) error {
	req := &models.AllocationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Allocate(req.Template, req.Amount)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}
