package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fasttrack/internal/notify"
	"fasttrack/internal/repository/sqlite"
	"fasttrack/internal/service"
	"fasttrack/internal/timer"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))

	store := sqlite.NewStore(db)
	authService := service.NewAuthService(store, 16)
	timerService := service.NewTimerService(store, notify.NewLogNotifier(nil))
	historyService := service.NewHistoryService(store)
	exportService := service.NewExportService(store, nil, "")

	runner := timer.NewRunner(timer.Config{TickInterval: time.Minute}, timerService)
	runner.Start(context.Background())
	t.Cleanup(runner.Shutdown)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(authService, timerService, historyService, exportService, runner, "test-secret", time.Hour)
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAuthEndpoints(t *testing.T) {
	router := setupRouter(t)
	token := registerUser(t, router)

	// duplicate registration conflicts
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice2@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// wrong password and unknown users both read as unauthorized
	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"identifier": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"identifier": "nobody", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// me requires a token
	w = doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
}

func TestTimerEndpoints(t *testing.T) {
	router := setupRouter(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/timer/start", token, gin.H{"goalHours": 16})
	require.Equal(t, http.StatusCreated, w.Code)

	// second start conflicts while a fast is running
	w = doJSON(t, router, http.MethodPost, "/api/timer/start", token, gin.H{"goalHours": 16})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/timer", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status SnapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status.State)
	assert.Equal(t, 16.0, status.GoalHours)

	w = doJSON(t, router, http.MethodPost, "/api/timer/end", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/timer", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "idle", status.State)

	// ending from idle is a 404
	w = doJSON(t, router, http.MethodPost, "/api/timer/end", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryAndExportEndpoints(t *testing.T) {
	router := setupRouter(t)
	token := registerUser(t, router)

	doJSON(t, router, http.MethodPost, "/api/timer/start", token, gin.H{"goalHours": 16})
	doJSON(t, router, http.MethodPost, "/api/timer/end", token, nil)

	w := doJSON(t, router, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Completed)

	w = doJSON(t, router, http.MethodGet, "/api/history/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// backups are disabled without a bucket
	w = doJSON(t, router, http.MethodPost, "/api/export/backup", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearUserData(t *testing.T) {
	router := setupRouter(t)
	token := registerUser(t, router)

	doJSON(t, router, http.MethodPost, "/api/timer/start", token, gin.H{"goalHours": 16})
	doJSON(t, router, http.MethodPost, "/api/timer/end", token, nil)

	w := doJSON(t, router, http.MethodDelete, "/api/user/data", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	assert.Empty(t, sessions)

	// the account itself survives the wipe
	w = doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
