package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travonex/backend/internal/auth"
)

func newProtectedRouter(t *testing.T, svc *auth.JWTService, roles ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", JWT(svc))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		id := c.MustGet(auth.ContextUserID).(uuid.UUID)
		role := c.MustGet(auth.ContextUserRole).(string)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "role": role})
	})
	return router
}

func TestJWTSetsUserContext(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	userID := uuid.New()
	token, err := svc.Generate(userID, "rhea@example.com", "traveler")
	require.NoError(t, err)

	router := newProtectedRouter(t, svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "traveler")
}

func TestJWTRejectsBadTokens(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	router := newProtectedRouter(t, svc)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRoleBlocksMismatch(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	token, err := svc.Generate(uuid.New(), "org@example.com", "organizer")
	require.NoError(t, err)

	router := newProtectedRouter(t, svc, "admin")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	router = newProtectedRouter(t, svc, "organizer", "admin")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
