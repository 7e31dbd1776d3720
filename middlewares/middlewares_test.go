package middlewares_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{utils.NewValidationError("amount", "amount must be greater than zero"), http.StatusBadRequest},
		{utils.NewAccessDeniedError("booking", 4, "not assigned to this customer"), http.StatusForbidden},
		{utils.NewNotFoundError("invoice", 9), http.StatusNotFound},
		{utils.NewConflictError("invoice %s is CANCELLED", "INV-000001"), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := middlewares.StatusForError(tc.err); got != tc.expected {
			t.Fatalf("StatusForError(%v) expected %d, got %d", tc.err, tc.expected, got)
		}
	}
}

func TestAbortWithError_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware(testdb.New(t).Logger))
	r.GET("/conflict", func(c *gin.Context) {
		middlewares.AbortWithError(c, utils.NewConflictError("booking BK-000001 is already CANCELLED"))
	})
	r.GET("/boom", func(c *gin.Context) {
		middlewares.AbortWithError(c, errors.New("dial tcp: refused"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conflict", nil)
	req.Header.Set("X-Correlation-Id", "req-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "booking BK-000001 is already CANCELLED", body["error"])
	assert.Equal(t, "req-1", body["correlation_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
	assert.NotEmpty(t, w.Header().Get("X-Correlation-Id"))
}

func TestAuthMiddleware_ResolvesScope(t *testing.T) {
	env := testdb.New(t)
	customer := testdb.Customer(t, env, "Alpha")
	agent := testdb.User(t, env, "agent", models.UserRoleSalesAgent)
	testdb.Assign(t, env, customer.ID, agent.ID, models.AssignedRoleSalesAgent)

	r := gin.New()
	r.Use(middlewares.AuthMiddleware(env))
	protected := r.Group("/api", middlewares.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, middlewares.Scope(c))
	})
	protected.GET("/admin", middlewares.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.JwtGenerate(agent.ID, string(agent.Role))
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var scope models.AccessScope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scope))
	assert.Equal(t, agent.ID, scope.UserId)
	assert.False(t, scope.Customers.Unrestricted)
	assert.Equal(t, []int{customer.ID}, scope.Customers.Ids)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiter_WithoutRedisLetsRequestsThrough(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.NewRateLimiter(nil, 1, 0).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestErrorLogger_LevelFollowsStatus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(middlewares.ErrorLogger(logger))
	r.GET("/rejected", func(c *gin.Context) {
		middlewares.AbortWithError(c, utils.NewConflictError("receipt RC-000001 is cancelled"))
	})
	r.GET("/failed", func(c *gin.Context) {
		middlewares.AbortWithError(c, errors.New("dial tcp: refused"))
	})
	r.GET("/fine", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		path    string
		entries int
		level   logrus.Level
		status  int
	}{
		{"/rejected", 1, logrus.DebugLevel, http.StatusConflict},
		{"/failed", 1, logrus.ErrorLevel, http.StatusInternalServerError},
		{"/fine", 0, 0, 0},
	}
	for _, tc := range cases {
		hook.Reset()
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))
		if len(hook.AllEntries()) != tc.entries {
			t.Fatalf("%s: expected %d log entries, got %d", tc.path, tc.entries, len(hook.AllEntries()))
		}
		if tc.entries == 0 {
			continue
		}
		entry := hook.LastEntry()
		assert.Equal(t, tc.level, entry.Level, tc.path)
		assert.Equal(t, tc.status, entry.Data["status"], tc.path)
	}
}

func TestCorrelationMiddleware_LogsAuthenticatedUser(t *testing.T) {
	env := testdb.New(t)
	agent := testdb.User(t, env, "agent", models.UserRoleSalesAgent)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware(logger))
	r.Use(middlewares.AuthMiddleware(env))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token, err := utils.JwtGenerate(agent.ID, string(agent.Role))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "agent", entry.Data["user"])
	assert.Equal(t, http.StatusNoContent, entry.Data["status"])
}
