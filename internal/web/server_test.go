package web

import (
	"context"
	"edge_trading/internal/engine"
	"edge_trading/internal/models"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockController struct {
	mock.Mock
}

func (m *MockController) Start(ctx context.Context, s engine.Strategy) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockController) Stop(s engine.Strategy) error {
	return m.Called(s).Error(0)
}

func (m *MockController) IsRunning(s engine.Strategy) bool {
	return m.Called(s).Bool(0)
}

func (m *MockController) TriggerScan() error {
	return m.Called().Error(0)
}

func (m *MockController) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockController) Stats() models.Stats {
	return m.Called().Get(0).(models.Stats)
}

func (m *MockController) SpotTrades() []models.TradeRecord {
	return m.Called().Get(0).([]models.TradeRecord)
}

func (m *MockController) PlacedTrades() []models.PlacedTrade {
	return m.Called().Get(0).([]models.PlacedTrade)
}

func (m *MockController) Activity() []models.ActivityEntry {
	return m.Called().Get(0).([]models.ActivityEntry)
}

func serve(t *testing.T, ctrl Controller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewServer(context.Background(), ctrl, "0", zerolog.Nop()).Routes()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Stats").Return(models.Stats{Scanner: models.ScannerStats{Connected: true}})

	w := serve(t, ctrl, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["scanner_connected"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Activity").Return([]models.ActivityEntry{})

	router := NewServer(context.Background(), ctrl, "0", zerolog.Nop()).Routes()
	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestScannerRoute(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Stats").Return(models.Stats{Scanner: models.ScannerStats{TradesPlaced: 1, Balance: 920}})
	ctrl.On("PlacedTrades").Return([]models.PlacedTrade{{Ticker: "ALPHA", Side: models.SideYes, Contracts: 123}})

	w := serve(t, ctrl, http.MethodGet, "/api/scanner", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Stats  models.ScannerStats  `json:"stats"`
		Trades []models.PlacedTrade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 920.0, body.Stats.Balance)
	require.Len(t, body.Trades, 1)
	assert.Equal(t, "ALPHA", body.Trades[0].Ticker)
}

func TestEngineActions(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Start", mock.Anything, engine.StrategySpot).Return(nil).Once()
	ctrl.On("Stop", engine.StrategyScanner).Return(nil).Once()
	ctrl.On("TriggerScan").Return(engine.ErrCycleInProgress).Once()

	w := serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"spot","action":"start"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"scanner","action":"stop"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"scanner","action":"run"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	ctrl.AssertExpectations(t)
}

func TestEngineActionValidation(t *testing.T) {
	ctrl := new(MockController)

	w := serve(t, ctrl, http.MethodPost, "/api/engine/action", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"spot","action":"liquidate"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"spot","action":"run"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctrl.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	ctrl.AssertNotCalled(t, "TriggerScan")
}

func TestStartUnavailableScanner(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Start", mock.Anything, engine.StrategyScanner).Return(engine.ErrScannerUnavailable)

	w := serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"scanner","action":"start"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEngineActionConnect(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Connect", mock.Anything).Return(nil).Once()
	ctrl.On("Connect", mock.Anything).Return(fmt.Errorf("%w: connect: status 401: invalid key", models.ErrAuth)).Once()

	w := serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"scanner","action":"connect"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"scanner","action":"connect"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "invalid key")

	w = serve(t, ctrl, http.MethodPost, "/api/engine/action", `{"strategy":"spot","action":"connect"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctrl.AssertExpectations(t)
}

func TestMetricsAndIndex(t *testing.T) {
	ctrl := new(MockController)

	w := serve(t, ctrl, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, ctrl, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Edge Trading Dashboard")
}
