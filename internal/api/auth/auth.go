// Package auth resolves the calling user of a request. API clients send
// "Authorization: Token <key>", browsers carry a signed session cookie.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/models"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/foodgram"
)

const (
	// SessionName is the name of the session cookie.
	SessionName = "foodgram_session"

	userKey          = "user"
	tokenAuthKey     = "token_auth"
	sessionUserIDKey = "user_id"
	tokenScheme      = "Token"
)

// Authenticator resolves credentials to users. Unknown or inactive
// credentials are reported as foodgram.ErrUnauthorized.
type Authenticator interface {
	AuthenticateToken(ctx context.Context, key string) (*database.User, error)
	AuthenticateSession(ctx context.Context, userID uint) (*database.User, error)
}

// Middleware identifies the caller. A request with an invalid token is
// rejected, a request without credentials continues anonymously.
func Middleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, key, _ := strings.Cut(header, " ")
			key = strings.TrimSpace(key)
			if !strings.EqualFold(scheme, tokenScheme) || key == "" {
				abortUnauthorized(c, "Invalid token header.")
				return
			}
			user, err := a.AuthenticateToken(c.Request.Context(), key)
			if err != nil {
				if errors.Is(err, foodgram.ErrUnauthorized) {
					abortUnauthorized(c, "Invalid token.")
					return
				}
				log.Error("failed to authenticate token", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
				return
			}
			c.Set(userKey, user)
			c.Set(tokenAuthKey, true)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := session.Get(sessionUserIDKey).(uint); ok {
			user, err := a.AuthenticateSession(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(userKey, user)
			case errors.Is(err, foodgram.ErrUnauthorized):
				// stale session of a removed or deactivated account
				session.Clear()
				if err := session.Save(); err != nil {
					log.Error("failed to clear session", "error", err)
				}
			default:
				log.Error("failed to authenticate session", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
				return
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		c.Next()
	}
}

// RequireToken only admits callers that sent an Authorization token. It guards
// GET routes that change state: browsers attach the session cookie to
// cross-site navigations, so a cookie alone must not be enough there.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		if !c.GetBool(tokenAuthKey) {
			abortUnauthorized(c, "Token authentication is required for this request, use POST with a session.")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *gin.Context) *database.User {
	user, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := user.(*database.User)
	return u
}

// StartSession logs a user into the browser session.
func StartSession(c *gin.Context, user *database.User) error {
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	return session.Save()
}

// EndSession clears the browser session.
func EndSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", tokenScheme)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Error{Error: msg})
}
