// Package session manages the server-side per-operator session record.
// The cookie only carries an opaque key; the record itself lives in redis
// behind the gin-contrib/sessions store registered in main.
package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gms_backend/pkg/acl"
	"gms_backend/pkg/models"
)

// CookieName is the session cookie holding the opaque key
const CookieName = "session_key"

const (
	keyData         = "data"
	keyLastActivity = "last_activity"

	// ContextKey is where the guard stores the decoded Context in gin
	ContextKey = "sessionCtx"
)

// Context is the identity and scoping carried by a live session
type Context struct {
	UserID         int               `json:"userId"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	UserType       models.UserType   `json:"userType"`
	Status         models.UserStatus `json:"status"`
	RoleID         int               `json:"roleId"`
	GarageIDs      []int             `json:"garageIds"`
	CityIDs        []int             `json:"cityIds"`
	ActiveGarageID *int              `json:"activeGarageId"`
	ACL            acl.ACL           `json:"acl"`
	BusinessLogo   string            `json:"businessLogo"`

	// Default reporting window seeded at login (7 days back); endpoints
	// may override it per request.
	RangeFrom string `json:"rangeFrom"`
	RangeTo   string `json:"rangeTo"`
}

// AllowsGarage reports whether a garage id is inside the session's scope
func (ctx *Context) AllowsGarage(garageID int) bool {
	for _, id := range ctx.GarageIDs {
		if id == garageID {
			return true
		}
	}
	return false
}

// Service owns session lifecycle and the inactivity limit
type Service struct {
	inactivity time.Duration
	now        func() time.Time
}

// NewService builds a Service with the configured inactivity limit
func NewService(inactivityMinutes int) *Service {
	return &Service{
		inactivity: time.Duration(inactivityMinutes) * time.Minute,
		now:        time.Now,
	}
}

// Create initializes the session record for a freshly logged-in user
func (s *Service) Create(c *gin.Context, ctx Context) error {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return err
	}
	sess := sessions.Default(c)
	sess.Set(keyData, string(raw))
	sess.Set(keyLastActivity, s.now().Unix())
	return sess.Save()
}

// Load resolves the session record from the request cookie
func (s *Service) Load(c *gin.Context) (*Context, time.Time, bool) {
	sess := sessions.Default(c)
	raw, ok := sess.Get(keyData).(string)
	if !ok || raw == "" {
		return nil, time.Time{}, false
	}
	last, ok := sess.Get(keyLastActivity).(int64)
	if !ok {
		return nil, time.Time{}, false
	}
	var ctx Context
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		logrus.WithError(err).Warn("corrupt session record, treating as absent")
		return nil, time.Time{}, false
	}
	return &ctx, time.Unix(last, 0), true
}

// Touch moves last-activity to now. Concurrent requests on one session may
// race here; last writer wins.
func (s *Service) Touch(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Set(keyLastActivity, s.now().Unix())
	return sess.Save()
}

// IsStale reports whether the inactivity limit has elapsed
func (s *Service) IsStale(lastActivity time.Time) bool {
	return s.now().Sub(lastActivity) > s.inactivity
}

// Update rewrites the stored Context (active garage switch, range change)
func (s *Service) Update(c *gin.Context, ctx *Context) error {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return err
	}
	sess := sessions.Default(c)
	sess.Set(keyData, string(raw))
	sess.Set(keyLastActivity, s.now().Unix())
	return sess.Save()
}

// Clear flushes the record and expires the cookie
func (s *Service) Clear(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{MaxAge: -1, Path: "/"})
	return sess.Save()
}

// Guard is the cross-cutting wrapper for operator endpoints: it loads the
// session, enforces the inactivity limit and exposes the Context to
// handlers. Missing or stale sessions get a 401 with a login redirect hint.
func (s *Service) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, lastActivity, ok := s.Load(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":   false,
				"message":  "Please login to continue.",
				"redirect": "/login",
			})
			c.Abort()
			return
		}

		if s.IsStale(lastActivity) {
			if err := s.Clear(c); err != nil {
				logrus.WithError(err).Warn("failed to clear stale session")
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":   false,
				"message":  "Session expired due to inactivity. Please login again.",
				"redirect": "/login",
			})
			c.Abort()
			return
		}

		if err := s.Touch(c); err != nil {
			logrus.WithError(err).Warn("failed to touch session")
		}

		c.Set(ContextKey, ctx)
		c.Next()
	}
}

// FromContext returns the Context stored by Guard
func FromContext(c *gin.Context) (*Context, bool) {
	v, exists := c.Get(ContextKey)
	if !exists {
		return nil, false
	}
	ctx, ok := v.(*Context)
	return ctx, ok
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
