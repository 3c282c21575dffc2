package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/aristath/comptroller/internal/modules/multiplier"
	"github.com/aristath/comptroller/internal/modules/snapshot"
)

const body = `{"version": "1.036", "cookies": 10, "cookiesPs": 2, "globalCpsMult": 1,
  "objects": [{"id": 0, "name": "Cursor", "basePrice": 15, "amount": 1, "storedCps": 0.1}],
  "ownedUpgrades": ["Get lucky"]}`

func setupRouter(t *testing.T) (*chi.Mux, *snapshot.Store) {
	t.Helper()
	table, err := multiplier.DefaultTable()
	require.NoError(t, err)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := snapshot.NewStore(snapshot.NewDecoder(table), nil, log)

	router := chi.NewRouter()
	handler := NewHandler(store, nil, log)
	handler.RegisterRoutes(router)
	handler.RegisterStreamRoutes(router)
	return router, store
}

func TestHandleIngest(t *testing.T) {
	router, store := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data ingestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, resp.Data.ID, latest.ID)
}

func TestHandleIngest_Malformed(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", strings.NewReader(`{"cookies": 1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetLatest(t *testing.T) {
	router, store := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := store.IngestJSON([]byte(body))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Cookies   float64 `json:"cookies"`
			Buildings []struct {
				Name string `json:"name"`
			} `json:"buildings"`
		} `json:"data"`
		Metadata struct {
			OwnedUpgrades []string `json:"owned_upgrades"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10.0, resp.Data.Cookies)
	require.Len(t, resp.Data.Buildings, 1)
	assert.Equal(t, "Cursor", resp.Data.Buildings[0].Name)
	assert.Equal(t, []string{"Get lucky"}, resp.Metadata.OwnedUpgrades)
}

func TestHandleStream(t *testing.T) {
	router, store := setupRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/host/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(body)))
	_, reply, err := conn.Read(ctx)
	require.NoError(t, err)

	var ack ingestResponse
	require.NoError(t, json.Unmarshal(reply, &ack))
	assert.NotEmpty(t, ack.ID)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, ack.ID, latest.ID)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`nope`)))
	_, reply, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(reply), "error")
}
