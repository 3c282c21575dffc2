package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/comptroller/internal/modules/history"
	testingpkg "github.com/aristath/comptroller/internal/testing"
)

func setupHandler(t *testing.T) (*chi.Mux, *history.Service) {
	t.Helper()
	db := testingpkg.NewTestDB(t, "history")
	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := history.NewService(history.NewRepository(db.Conn(), log), nil, log)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router, service
}

func TestHandleGetCps(t *testing.T) {
	router, service := setupHandler(t)

	snap := testingpkg.NewSnapshotFixture()
	for i := 0; i < 3; i++ {
		snap.ReceivedAt = snap.ReceivedAt.Add(time.Second)
		snap.Cookies += 400
		_, err := service.Record(snap)
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/cps?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Samples     []history.Sample `json:"samples"`
			MeanCps     float64          `json:"mean_cps"`
			RealizedCps *float64         `json:"realized_cps"`
		} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Samples, 2)
	assert.InDelta(t, 484, body.Data.MeanCps, 1e-9)
	require.NotNil(t, body.Data.RealizedCps)
	assert.InDelta(t, 400, *body.Data.RealizedCps, 1e-9)
	assert.Equal(t, float64(2), body.Metadata["limit"])
}

func TestHandleGetCps_BadLimit(t *testing.T) {
	router, _ := setupHandler(t)

	for _, limit := range []string{"abc", "0", "-4"} {
		t.Run(limit, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/cps?limit="+limit, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleGetSnapshot(t *testing.T) {
	router, service := setupHandler(t)

	sample, err := service.Record(testingpkg.NewSnapshotFixture())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/samples/"+sample.ID+"/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kitten helpers")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/samples/missing/snapshot", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
