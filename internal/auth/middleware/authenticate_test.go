package middleware

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

	"github.com/kanban-collab/kanban-backend/internal/auth"
	"github.com/kanban-collab/kanban-backend/internal/users"
)

type tokenVerifier map[string]*auth.Identity

func (v tokenVerifier) Verify(_ context.Context, credential string) (*auth.Identity, error) {
	id, ok := v[credential]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return id, nil
}

type mappingResolver struct {
	ids  map[string]string
	err  error
	seen []users.UpsertUser
}

func (r *mappingResolver) EnsureUser(_ context.Context, u users.UpsertUser) (string, error) {
	r.seen = append(r.seen, u)
	if r.err != nil {
		return "", r.err
	}
	return r.ids[u.FirebaseUID], nil
}

func newTestRouter(verifier auth.TokenVerifier, resolver UserResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Authenticate(verifier, resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": auth.UserID(c),
			"uid":     auth.UserFirebaseUID(c),
			"email":   c.GetString(auth.CtxEmail),
		})
	})
	return r
}

func TestAuthenticate_BearerToken(t *testing.T) {
	verifier := tokenVerifier{"good": {UID: "fb-1", Email: "a@example.com", DisplayName: "Ada"}}
	resolver := &mappingResolver{ids: map[string]string{"fb-1": "user-uuid-1"}}
	r := newTestRouter(verifier, resolver)

	t.Run("valid token resolves user id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "user-uuid-1", body["user_id"])
		assert.Equal(t, "fb-1", body["uid"])
		assert.Equal(t, "a@example.com", body["email"])
		require.NotEmpty(t, resolver.seen)
		assert.Equal(t, "Ada", resolver.seen[len(resolver.seen)-1].DisplayName)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-bearer scheme is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic good")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthenticate_HeaderMode(t *testing.T) {
	r := newTestRouter(auth.HeaderVerifier{}, users.Passthrough{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-User-Email", "u1@example.com")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "u1@example.com", body["email"])

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticate_ResolverFailure(t *testing.T) {
	verifier := tokenVerifier{"good": {UID: "fb-1"}}
	r := newTestRouter(verifier, &mappingResolver{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
