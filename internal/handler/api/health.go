package api

import (
	"time"

	"CryptoCompass/internal/usecase"
	xhttp "CryptoCompass/pkg/http"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	boards []*usecase.Board
}

func NewHealthHandler(boards ...*usecase.Board) *HealthHandler {
	return &HealthHandler{boards: boards}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type boardHealth struct {
	Seq       uint64     `json:"seq"`
	Assets    int        `json:"assets"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Health is a liveness probe. Upstream failures are reported per board but
// never fail the probe.
func (h *HealthHandler) Health(c echo.Context) error {
	out := map[string]interface{}{"status": "ok"}
	for _, b := range h.boards {
		st := b.State()
		bh := boardHealth{Error: st.Error}
		if st.Snapshot != nil {
			at := st.Snapshot.FetchedAt
			bh.Seq = st.Snapshot.Seq
			bh.Assets = st.Snapshot.Len()
			bh.FetchedAt = &at
		}
		out[b.Resource()] = bh
	}
	return xhttp.SuccessResponse(c, out)
}
