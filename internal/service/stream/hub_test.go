package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historySource struct{}

func (historySource) ListMarkets(context.Context, int) ([]models.Asset, error) { return nil, nil }
func (historySource) ListMarketsRaw(context.Context, int) ([]byte, error)      { return nil, nil }
func (historySource) History(_ context.Context, _ string, _ int) ([]models.PricePoint, error) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.PricePoint{{Timestamp: t0, Price: 100}, {Timestamp: t0.Add(24 * time.Hour), Price: 150}}, nil
}

func startHub(t *testing.T, opts ...Option) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Outbound
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, TypeHello, hello.Type)
	require.NotEmpty(t, hello.ClientID)
	return hub, conn
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, conn := startHub(t)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	snap := &models.MarketSnapshot{Resource: "markets", Seq: 3, Assets: []models.Asset{{ID: "bitcoin", CurrentPrice: 50000}}}
	require.NoError(t, hub.Publish(context.Background(), snap))

	var msg Outbound
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, uint64(3), msg.Snapshot.Seq)
	assert.Equal(t, "bitcoin", msg.Snapshot.Assets[0].ID)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())
}

func TestHubRunsSimulation(t *testing.T) {
	catalog := models.DefaultCatalog()
	svc := usecase.NewSimulationService(&catalog, historySource{}, nil, nil)
	hub, conn := startHub(t, WithSimulator(svc))
	defer hub.Close()

	require.NoError(t, conn.WriteJSON(Inbound{Type: TypeSimulate, Asset: "btc", Days: 30, Amount: 1000}))

	var msg Outbound
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeSimulation, msg.Type)
	require.NotNil(t, msg.Simulation)
	require.NotNil(t, msg.Simulation.Report)
	assert.Equal(t, uint64(1), msg.Simulation.Seq)
	assert.InDelta(t, 1500, msg.Simulation.Report.Result.CurrentValue, 1e-9)
	assert.Empty(t, msg.Simulation.Error)
}

func TestHubRejectsUnknownMessage(t *testing.T) {
	hub, conn := startHub(t)
	defer hub.Close()

	require.NoError(t, conn.WriteJSON(Inbound{Type: "subscribe"}))

	var msg Outbound
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "subscribe")
}

func TestClosedHubRefusesClients(t *testing.T) {
	hub := NewHub()
	require.NoError(t, hub.Close())

	rec := httptest.NewRecorder()
	err := hub.ServeWS(rec, httptest.NewRequest(http.MethodGet, "/ws/markets", nil))
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHubChecksOrigin(t *testing.T) {
	hub := NewHub(WithAllowedOrigins([]string{"https://dash.example"}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()
	defer hub.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://dash.example"}})
	require.NoError(t, err)
	conn.Close()
}

func TestHubDefaultsToSameOrigin(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()
	defer hub.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), http.Header{"Origin": {"https://elsewhere.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
