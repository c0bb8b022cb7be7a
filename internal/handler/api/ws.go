package api

import (
	"errors"

	"CryptoCompass/internal/service/stream"
	xhttp "CryptoCompass/pkg/http"
	xlogger "CryptoCompass/pkg/logger"

	"github.com/labstack/echo/v4"
)

type StreamHandler struct {
	logger *xlogger.Logger
	hub    *stream.Hub
}

func NewStreamHandler(logger *xlogger.Logger, hub *stream.Hub) *StreamHandler {
	return &StreamHandler{logger: logger, hub: hub}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/markets", h.Serve)
}

// Serve blocks for the life of the websocket connection.
func (h *StreamHandler) Serve(c echo.Context) error {
	err := h.hub.ServeWS(c.Response(), c.Request())
	if errors.Is(err, stream.ErrHubClosed) {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("ERR_SHUTTING_DOWN", "server is shutting down"))
	}
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
	}
	return nil
}
