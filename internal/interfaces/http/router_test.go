package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KlotzJesse/solar-potential/internal/application/selection"
	"github.com/KlotzJesse/solar-potential/internal/domain/building"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/cache"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/geocoding"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/prometheus"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/handlers"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/middleware"
	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(_ context.Context, query string) (*geocoding.Result, error) {
	return &geocoding.Result{
		Location: solar.LatLng{Latitude: 48.1, Longitude: 11.5},
		Address:  query + ", Resolved City",
	}, nil
}

func (stubGeocoder) ReverseGeocode(_ context.Context, location solar.LatLng) (string, error) {
	return fmt.Sprintf("Musterweg 12, near %s", location.Key()), nil
}

type stubProvider struct{}

func (stubProvider) FindClosestBuilding(context.Context, solar.LatLng) (*solar.BuildingInsights, error) {
	return &solar.BuildingInsights{
		SolarPotential: solar.SolarPotential{
			MaxArrayPanelsCount:        200,
			MaxArrayAreaMeters2:        400,
			PanelCapacityWatts:         400,
			CarbonOffsetFactorKgPerMwh: 428,
			WholeRoofStats:             solar.SizeAndSunshineStats{AreaMeters2: 600},
			SolarPanelConfigs: []solar.SolarPanelConfig{
				{PanelsCount: 50, YearlyEnergyDcKwh: 20000},
			},
		},
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.NewNopLogger()
	svc := selection.NewService(
		building.NewRegistry(nil),
		stubGeocoder{},
		stubProvider{},
		cache.NewMemoryCache(0),
		selection.Config{},
		logger,
		nil,
	)
	cors := middleware.DefaultCORSConfig()
	return NewRouter(RouterConfig{
		BuildingHandler: handlers.NewBuildingHandler(svc, logger),
		HealthHandler:   handlers.NewHealthHandler("test"),
		CORS:            &cors,
		Logger:          logger,
		Metrics:         prometheus.New(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateAndListBuildings(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Building        *selection.Building `json:"building"`
		AlreadySelected bool                `json:"alreadySelected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.False(t, created.AlreadySelected)
	assert.Equal(t, "Building 12", created.Building.Nickname)

	// Re-selecting the same spot dedupes onto the existing entry.
	w = doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.AlreadySelected)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Buildings []*selection.Building `json:"buildings"`
		Total     int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestCreateByAddress(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"address": "Marienplatz 8",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Building *selection.Building `json:"building"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Marienplatz 8, Resolved City", created.Building.Address)
}

func TestCreateRejectsEmptyBody(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildingItemRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Building *selection.Building `json:"building"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Building.ID

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/v1/buildings/"+id+"/nickname", map[string]string{"nickname": "Garage"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated selection.Building
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Garage", updated.Nickname)

	// Only one panel configuration exists, index 1 is out of range.
	w = doJSON(t, router, http.MethodPatch, "/api/v1/buildings/"+id+"/config", map[string]int{"configIndex": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/buildings/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.False(t, updated.IsActive)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/buildings/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/summary?panelCapacityWatts=800", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary selection.SummaryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 2.0, summary.PanelCapacityRatio, 1e-9)
	assert.Equal(t, 100, summary.TotalPanels)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/summary?dcToAcDerate=nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/match?latitude=48.137154&longitude=11.576124", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var matched selection.Building
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matched))
	assert.Equal(t, "Building 12", matched.Nickname)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/match?latitude=50&longitude=11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings/match", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/buildings", map[string]interface{}{
		"latitude": 48.137154, "longitude": 11.576124,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/buildings", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/buildings", nil)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Total)
}
