package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireAPISecret(t *testing.T) {
	r := gin.New()
	r.GET("/job", RequireAPISecret("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := map[string]int{
		"/job":                http.StatusUnauthorized,
		"/job?secret=wrong":   http.StatusUnauthorized,
		"/job?secret=s3cret":  http.StatusNoContent,
		"/job?secret=s3cret2": http.StatusUnauthorized,
	}
	for target, want := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, want, w.Code, target)
	}
}

func TestRequireAPISecret_EmptyConfiguredSecretRejects(t *testing.T) {
	r := gin.New()
	r.GET("/job", RequireAPISecret(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/job?secret=", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"email":      c.GetString(CtxEmail),
			"user":       c.GetString(CtxUserID),
			"workspaces": c.GetStringSlice(CtxWorkspaceIDs),
		})
	})

	valid := signToken(t, testSecret, jwt.MapClaims{
		"sub":        "user-1",
		"email":      "dev@example.com",
		"workspaces": []string{"ws-1", "ws-2"},
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"email":"dev@example.com","user":"user-1","workspaces":["ws-1","ws-2"]}`, w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: valid})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", valid)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other", jwt.MapClaims{"sub": "x"}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{
			"sub": "x", "exp": time.Now().Add(-time.Hour).Unix(),
		}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireWorkspaceAccess(t *testing.T) {
	newRouter := func(role string, ids []string) *gin.Engine {
		r := gin.New()
		r.POST("/ws", func(c *gin.Context) {
			c.Set(CtxRole, role)
			c.Set(CtxWorkspaceIDs, ids)
		}, RequireWorkspaceAccess(), func(c *gin.Context) {
			var body struct {
				WorkspaceID string `json:"workspace_id"`
				Tier        string `json:"tier"`
			}
			require.NoError(t, c.ShouldBindBodyWith(&body, binding.JSON))
			c.JSON(http.StatusOK, gin.H{"ws": c.GetString(CtxWorkspaceID), "tier": body.Tier})
		})
		return r
	}
	post := func(r *gin.Engine, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ws", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	member := newRouter("", []string{"ws-1"})
	w := post(member, `{"workspace_id":"ws-1","tier":"Basic"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ws":"ws-1","tier":"Basic"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, post(member, `{"workspace_id":"ws-2"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(member, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(member, `not json`).Code)

	admin := newRouter("admin", nil)
	assert.Equal(t, http.StatusOK, post(admin, `{"workspace_id":"ws-9"}`).Code)
}

func TestSanitizeAndCleanInputMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/echo", SanitizeAndCleanInputMiddleware(), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", body)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo",
		strings.NewReader(`{"name":"<b>ws</b>","nested":{"note":"<script>x</script>hi"},"list":["<i>a</i>"],"n":3}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"ws","nested":{"note":"hi"},"list":["a"],"n":3}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{bad`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
