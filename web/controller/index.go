package controller

import (
	"strconv"
	"strings"

	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/middleware"
	"github.com/mapavioleta/mapavioleta/web/service"
	"github.com/mapavioleta/mapavioleta/web/session"

	"github.com/gin-gonic/gin"
)

const maxLogCount = 500

// IndexController handles registration, login, logout, the profile of the
// calling user and the administrator's view of recent log lines.
type IndexController struct {
	BaseController

	presenceService service.PresenceService
}

func NewIndexController(g *gin.RouterGroup) *IndexController {
	a := &IndexController{}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	limited := g.Group("")
	limited.Use(middleware.RateLimitMiddleware(middleware.AuthRateLimitConfig()))
	limited.POST("/register", a.register)
	limited.POST("/login", a.login)

	auth := g.Group("")
	auth.Use(a.checkLogin)
	auth.POST("/logout", a.logout)
	auth.GET("/logout", a.logout)
	auth.GET("/me", a.me)

	admin := auth.Group("")
	admin.Use(a.checkAdmin)
	admin.GET("/logs", a.getLogs)
}

func (a *IndexController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		jsonErr(c, common.ErrInvalidForm)
		return
	}
	if form.ConfirmPassword == "" {
		jsonErr(c, common.WithField(common.ErrMissingField, "confirm_password"))
		return
	}
	if form.Password != form.ConfirmPassword {
		jsonErr(c, common.ErrPasswordMismatch)
		return
	}

	user, err := a.userService.Register(c.Request.Context(), service.Registration{
		Handle:   form.Handle,
		Email:    form.Email,
		Password: form.Password,
		Pronouns: form.Pronouns,
	})
	if err != nil {
		jsonErr(c, err)
		return
	}
	logger.Infof("%s registered, IP: %s", user.Handle, getRemoteIp(c))
	jsonMsgObj(c, I18nWeb(c, "success.register"), entity.NewProfileRecord(user), nil)
}

func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		jsonErr(c, common.ErrInvalidForm)
		return
	}

	ctx := c.Request.Context()
	user, err := a.userService.Authenticate(ctx, form.Email, form.Password)
	if err != nil {
		if common.KindOf(err) == common.KindUnauthenticated {
			logger.Warningf("failed login for %q, IP: %s", strings.TrimSpace(form.Email), getRemoteIp(c))
		}
		jsonErr(c, err)
		return
	}

	if err := session.SetLoginUser(c, user.Id); err != nil {
		jsonErr(c, common.StoreError(err))
		return
	}
	if err := a.presenceService.Touch(ctx, user); err != nil {
		jsonErr(c, err)
		return
	}

	logger.Infof("%s logged in, IP: %s", user.Handle, getRemoteIp(c))
	jsonMsgObj(c, I18nWeb(c, "success.login"), entity.NewProfileRecord(user), nil)
}

func (a *IndexController) logout(c *gin.Context) {
	user := getLoginUser(c)
	if err := a.presenceService.SetOffline(c.Request.Context(), user); err != nil {
		jsonErr(c, err)
		return
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to clear session:", err)
	}
	logger.Infof("%s logged out", user.Handle)
	jsonMsg(c, I18nWeb(c, "success.logout"), nil)
}

func (a *IndexController) me(c *gin.Context) {
	jsonObj(c, entity.NewProfileRecord(getLoginUser(c)), nil)
}

func (a *IndexController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}
	count = min(count, maxLogCount)
	level := strings.ToUpper(c.DefaultQuery("level", "INFO"))
	logs := logger.GetLogs(count, level)
	if logs == nil {
		logs = []string{}
	}
	jsonObj(c, logs, nil)
}
