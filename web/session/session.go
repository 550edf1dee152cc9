// Package session keeps the authenticated principal in the gin session. Only
// the user id is stored; the account is reloaded on every request.
package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// CookieName names the session cookie.
	CookieName = "mapa-violeta"
	loginUser  = "LOGIN_USER_ID"
)

// SetLoginUser stores userID as the session principal.
func SetLoginUser(c *gin.Context, userID int) error {
	s := sessions.Default(c)
	s.Set(loginUser, userID)
	return s.Save()
}

// GetLoginUserID returns the session principal, if any.
func GetLoginUserID(c *gin.Context) (int, bool) {
	s := sessions.Default(c)
	id, ok := s.Get(loginUser).(int)
	return id, ok && id > 0
}

// ClearSession drops the principal and expires the cookie.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}
