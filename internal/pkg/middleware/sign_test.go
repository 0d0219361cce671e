package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"server-profit-app/internal/pkg/util"
)

func newSignedRouter(secret string, clock clockwork.Clock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminSign(secret, clock))
	r.POST("/admin/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})
	return r
}

func signedRequest(secret string, ts int64, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/echo", strings.NewReader(body))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSign, util.GenSignCode(secret, ts, []byte(body)))
	return req
}

func TestAdminSign(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1700000000, 0))
	r := newSignedRouter("s3cret", clock)
	now := clock.Now().Unix()
	body := `{"action":"create"}`

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"valid", signedRequest("s3cret", now, body), http.StatusOK},
		{"slightly old", signedRequest("s3cret", now-59, body), http.StatusOK},
		{"stale", signedRequest("s3cret", now-61, body), http.StatusUnauthorized},
		{"future", signedRequest("s3cret", now+120, body), http.StatusUnauthorized},
		{"wrong secret", signedRequest("other", now, body), http.StatusUnauthorized},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, c.req)
		assert.Equal(t, c.code, w.Code, c.name)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest("s3cret", now, body))
	assert.Equal(t, body, w.Body.String(), "body is readable after verification")

	tampered := signedRequest("s3cret", now, body)
	tampered.Body = io.NopCloser(strings.NewReader(`{"action":"distribute"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, tampered)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	missing := httptest.NewRequest(http.MethodPost, "/admin/echo", strings.NewReader(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, missing)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "601")
}

func TestAdminSignWithoutSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newSignedRouter("", clock)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest("", clock.Now().Unix(), "{}"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
