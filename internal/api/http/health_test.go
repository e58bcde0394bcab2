package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func healthRequest(t *testing.T, db Pinger, method, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	NewHealthHandler("test-service", "1.0.0", db).RegisterRoutes(router)

	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var response HealthResponse
	if rr.Code == http.StatusOK && path != "/" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	}
	return rr, response
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		wantDB string
	}{
		{"no database", nil, "disabled"},
		{"database up", fakePinger{}, "up"},
		{"database down", fakePinger{err: errors.New("refused")}, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, response := healthRequest(t, tt.db, http.MethodGet, "/health")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "healthy", response.Status)
			assert.Equal(t, "test-service", response.Service)
			assert.Equal(t, "1.0.0", response.Version)
			assert.Equal(t, tt.wantDB, response.DB)
		})
	}
}

func TestHealthz(t *testing.T) {
	rr, response := healthRequest(t, nil, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", response.Status)
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	rr, _ := healthRequest(t, nil, http.MethodPost, "/health")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRoot(t *testing.T) {
	rr, _ := healthRequest(t, nil, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/api/v1", body["api"])
}
