package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	sessredis "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gms_backend/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	svc    *Service
	clock  *fakeClock
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newFixture(t *testing.T, inactivityMinutes int) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := sessredis.NewStore(10, "tcp", mr.Addr(), "", []byte("test-session-secret"))
	require.NoError(t, err)

	clock := &fakeClock{t: time.Now()}
	svc := NewService(inactivityMinutes)
	svc.SetClock(clock.Now)

	router := gin.New()
	router.Use(sessions.Sessions(CookieName, store))

	router.POST("/login", func(c *gin.Context) {
		err := svc.Create(c, Context{
			UserID:    1,
			Email:     "op@example.com",
			UserType:  models.UserTypeGarage,
			RoleID:    3,
			GarageIDs: []int{10, 11},
		})
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"status": true})
	})
	router.GET("/protected", svc.Guard(), func(c *gin.Context) {
		ctx, ok := FromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": ctx.UserID, "garageIds": ctx.GarageIDs})
	})

	return &fixture{router: router, svc: svc, clock: clock}
}

func (f *fixture) do(method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T) []*http.Cookie {
	t.Helper()
	w := f.do(http.MethodPost, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGuardRejectsMissingSession(t *testing.T) {
	f := newFixture(t, 60)

	w := f.do(http.MethodGet, "/protected", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Please login to continue.", body["message"])
	assert.Equal(t, "/login", body["redirect"])
}

func TestGuardPassesLiveSession(t *testing.T) {
	f := newFixture(t, 60)
	cookies := f.login(t)

	w := f.do(http.MethodGet, "/protected", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["userId"])
}

func TestGuardExpiresStaleSession(t *testing.T) {
	f := newFixture(t, 60)
	cookies := f.login(t)

	f.clock.Advance(61 * time.Minute)

	w := f.do(http.MethodGet, "/protected", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Session expired due to inactivity. Please login again.", body["message"])

	// The record is flushed; a retry is treated as a missing session.
	w = f.do(http.MethodGet, "/protected", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "Please login to continue.", body["message"])
}

func TestTouchSlidesTheWindow(t *testing.T) {
	f := newFixture(t, 60)
	cookies := f.login(t)

	// Activity every 40 minutes keeps the session alive well past the
	// original limit.
	for i := 0; i < 3; i++ {
		f.clock.Advance(40 * time.Minute)
		w := f.do(http.MethodGet, "/protected", cookies)
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i)
	}

	// Silence past the limit kills it.
	f.clock.Advance(61 * time.Minute)
	w := f.do(http.MethodGet, "/protected", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExactLimitIsNotStale(t *testing.T) {
	svc := NewService(60)
	base := time.Now()
	svc.SetClock(func() time.Time { return base.Add(60 * time.Minute) })

	assert.False(t, svc.IsStale(base), "exactly at the limit is still live")

	svc.SetClock(func() time.Time { return base.Add(60*time.Minute + time.Second) })
	assert.True(t, svc.IsStale(base))
}

func TestAllowsGarage(t *testing.T) {
	ctx := &Context{GarageIDs: []int{10, 11}}
	assert.True(t, ctx.AllowsGarage(10))
	assert.False(t, ctx.AllowsGarage(12))

	empty := &Context{}
	assert.False(t, empty.AllowsGarage(10))
}
