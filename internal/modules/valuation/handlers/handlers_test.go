package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/valuation"
	testingpkg "github.com/aristath/comptroller/internal/testing"
)

func loadedSource() *testingpkg.MockSnapshotSource {
	source := testingpkg.NewMockSnapshotSource()
	source.SetSnapshot(testSnapshot())
	return source
}

func incompleteSource() *testingpkg.MockSnapshotSource {
	snap := testSnapshot()
	snap.Buildings = append(snap.Buildings, domain.Building{ID: 2, Name: "Farm", PriceGrowthRate: 1.15, OwnedCount: 3, Incomplete: true})
	snap.StoreUpgrades = append(snap.StoreUpgrades, domain.Upgrade{ID: 5, Name: "Oatmeal cookies", Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.05), Incomplete: true})
	source := testingpkg.NewMockSnapshotSource()
	source.SetSnapshot(snap)
	return source
}

func failingSource() *testingpkg.MockSnapshotSource {
	source := testingpkg.NewMockSnapshotSource()
	source.SetError(errors.New("host unreachable"))
	return source
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		ID: "snap-1",
		State: domain.ProductionState{
			TotalCps:                  10,
			GlobalCpsMultiplier:       2,
			ActiveTemporaryMultiplier: 1,
		},
		Buildings: []domain.Building{
			{ID: 1, Name: "Grandma", Single: "grandma", Plural: "grandmas", BasePrice: 100, PriceGrowthRate: 1.15, OwnedCount: 98, StoredCps: 5},
		},
		StoreUpgrades: []domain.Upgrade{
			{ID: 4, Name: "Sugar cookies", BasePrice: 600, Kind: domain.UpgradeFlavor, DeclaredMagnitude: domain.Fraction(0.1)},
		},
	}
}

func setupRouter(t *testing.T, source SnapshotSource) *chi.Mux {
	t.Helper()
	table, err := multiplier.DefaultTable()
	require.NoError(t, err)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := valuation.NewService(multiplier.NewResolver(table), log)
	handler := NewHandler(service, source, Options{MilestoneFraction: 0.15}, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", rec.Body.String())
	return data
}

func TestHandleGetBatch(t *testing.T) {
	router := setupRouter(t, loadedSource())

	req := httptest.NewRequest(http.MethodGet, "/valuation/buildings/1/batch", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, float64(2), data["how_many"])
	assert.Equal(t, "2 grandmas", data["say_how_many"])
}

func TestHandleGetBatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source SnapshotSource
		path   string
		status int
	}{
		{"bad id", loadedSource(), "/valuation/buildings/x/batch", http.StatusBadRequest},
		{"bad target", loadedSource(), "/valuation/buildings/1/batch?target=-3", http.StatusBadRequest},
		{"target above cap", loadedSource(), "/valuation/buildings/1/batch?target=100000", http.StatusBadRequest},
		{"cost overflows", loadedSource(), "/valuation/buildings/1/batch?target=6000", http.StatusUnprocessableEntity},
		{"incomplete building", incompleteSource(), "/valuation/buildings/2/batch", http.StatusUnprocessableEntity},
		{"unknown building", loadedSource(), "/valuation/buildings/9/batch", http.StatusNotFound},
		{"no snapshot", testingpkg.NewMockSnapshotSource(), "/valuation/buildings/1/batch", http.StatusServiceUnavailable},
		{"source failure", failingSource(), "/valuation/buildings/1/batch", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, tt.source)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assertErrorBody(t, rec)
		})
	}
}

func assertErrorBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %q", rec.Body.String())
	assert.NotEmpty(t, body["error"])
}

func TestHandleGetCost(t *testing.T) {
	router := setupRouter(t, loadedSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/buildings/1/cost?from=0&to=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.InDelta(t, 347.25, data["cost"], 1e-6)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/buildings/1/cost?from=5&to=3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetCost_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source SnapshotSource
		path   string
		status int
	}{
		{"inverted range", loadedSource(), "/valuation/buildings/1/cost?from=5&to=3", http.StatusBadRequest},
		{"to above cap", loadedSource(), "/valuation/buildings/1/cost?from=0&to=100000", http.StatusBadRequest},
		{"cost overflows", loadedSource(), "/valuation/buildings/1/cost?from=0&to=6000", http.StatusUnprocessableEntity},
		{"incomplete building", incompleteSource(), "/valuation/buildings/2/cost?from=0&to=3", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, tt.source)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assertErrorBody(t, rec)
		})
	}
}

func TestHandleManualUpgrade(t *testing.T) {
	router := setupRouter(t, loadedSource())

	body := `{"upgrade_id": 4, "add_percent": 10}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuation/upgrade", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	repay, ok := data["time_to_repay"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 20.0, repay["value"], 1e-9)
}

func TestHandleManualUpgrade_Invalid(t *testing.T) {
	router := setupRouter(t, loadedSource())

	for _, body := range []string{`{`, `{"add_percent": 5}`, `{"price": -1, "add_percent": 5}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuation/upgrade", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuation/upgrade", strings.NewReader(`{"price": 10, "building_id": 42}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleManualUpgrade_IncompleteUpgrade(t *testing.T) {
	router := setupRouter(t, incompleteSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuation/upgrade", strings.NewReader(`{"upgrade_id": 5, "add_percent": 5}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuation/upgrade", strings.NewReader(`{"upgrade_id": 5, "price": 500, "add_percent": 5}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGetStore_IncompleteRowsAreUnknown(t *testing.T) {
	router := setupRouter(t, incompleteSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/store", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []valuation.Evaluation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 4)
	for _, row := range body.Data {
		if !row.Incomplete {
			continue
		}
		assert.Equal(t, valuation.ReasonUnknownKind, row.IncrementalValue.Reason, row.Name)
		assert.Equal(t, valuation.ReasonUnknownKind, row.MinutesToRepay.Reason, row.Name)
	}
}

func TestHandleGetMilestone(t *testing.T) {
	router := setupRouter(t, loadedSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/milestone", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, 0.15, data["fraction"])
	assert.NotEmpty(t, data["estimate"])
	assert.NotNil(t, data["milestone"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/milestone?fraction=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetStore(t *testing.T) {
	router := setupRouter(t, loadedSource())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/valuation/store", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []valuation.Evaluation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "building", body.Data[0].Kind)
	assert.Equal(t, "upgrade", body.Data[1].Kind)
}
