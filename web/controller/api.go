package controller

import (
	"github.com/gin-gonic/gin"
)

// APIController mounts the JSON API under /api.
type APIController struct {
	indexController    *IndexController
	pointController    *PointController
	commentController  *CommentController
	presenceController *PresenceController
}

func NewAPIController(g *gin.RouterGroup) *APIController {
	a := &APIController{}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/api")

	a.indexController = NewIndexController(api.Group(""))
	a.pointController = NewPointController(api.Group("/points"))
	a.commentController = NewCommentController(api.Group("/comments"))
	a.presenceController = NewPresenceController(api.Group(""))
}
