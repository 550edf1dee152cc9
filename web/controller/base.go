// Package controller provides the HTTP handlers of the map API: accounts,
// map entries, comments and presence.
package controller

import (
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/locale"
	"github.com/mapavioleta/mapavioleta/web/service"
	"github.com/mapavioleta/mapavioleta/web/session"

	"github.com/gin-gonic/gin"
)

const loginUserKey = "login_user"

// BaseController provides the identity gate shared by all controllers.
type BaseController struct {
	userService service.UserService
}

// checkLogin resolves the session principal and aborts with 401 when there
// is none. The loaded user is available to handlers through getLoginUser.
func (a *BaseController) checkLogin(c *gin.Context) {
	id, ok := session.GetLoginUserID(c)
	user, err := a.userService.RequireIdentity(c.Request.Context(), id, ok)
	if err != nil {
		jsonErr(c, err)
		c.Abort()
		return
	}
	c.Set(loginUserKey, user)
	c.Next()
}

// checkAdmin aborts with 403 unless the principal loaded by checkLogin is an
// administrator.
func (a *BaseController) checkAdmin(c *gin.Context) {
	user := getLoginUser(c)
	if user == nil || !user.IsAdmin {
		jsonErr(c, common.ErrForbidden)
		c.Abort()
		return
	}
	c.Next()
}

// getLoginUser returns the user stored by checkLogin.
func getLoginUser(c *gin.Context) *model.User {
	if v, ok := c.Get(loginUserKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// I18nWeb retrieves a message in the request's language.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(c, name, params...)
}
