package controller

import (
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/service"

	"github.com/gin-gonic/gin"
)

// PresenceController receives the client's periodic "still here" signal and
// lists the other users currently online.
type PresenceController struct {
	BaseController

	presenceService service.PresenceService
}

func NewPresenceController(g *gin.RouterGroup) *PresenceController {
	a := &PresenceController{}
	a.initRouter(g)
	return a
}

func (a *PresenceController) initRouter(g *gin.RouterGroup) {
	g.Use(a.checkLogin)
	g.POST("/presence", a.touch)
	g.GET("/online-users", a.online)
}

func (a *PresenceController) touch(c *gin.Context) {
	err := a.presenceService.Touch(c.Request.Context(), getLoginUser(c))
	jsonMsg(c, "", err)
}

func (a *PresenceController) online(c *gin.Context) {
	users, err := a.presenceService.ListOnline(c.Request.Context(), getLoginUser(c))
	if err != nil {
		jsonErr(c, err)
		return
	}
	records := make([]entity.OnlineUserRecord, 0, len(users))
	for i := range users {
		records = append(records, entity.NewOnlineUserRecord(&users[i]))
	}
	jsonObj(c, records, nil)
}
