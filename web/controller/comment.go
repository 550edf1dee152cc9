package controller

import (
	"time"

	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/locale"
	"github.com/mapavioleta/mapavioleta/web/service"

	"github.com/gin-gonic/gin"
)

// CommentController lists and adds the comments on a map entry.
type CommentController struct {
	BaseController

	commentService service.CommentService
}

func NewCommentController(g *gin.RouterGroup) *CommentController {
	a := &CommentController{}
	a.initRouter(g)
	return a
}

func (a *CommentController) initRouter(g *gin.RouterGroup) {
	g.Use(a.checkLogin)
	g.GET("", a.list)
	g.POST("", a.add)
}

func (a *CommentController) list(c *gin.Context) {
	entryID, err := parseID(c.Query("entry_id"), "entry_id")
	if err != nil {
		jsonErr(c, err)
		return
	}
	comments, err := a.commentService.ListForEntry(c.Request.Context(), entryID)
	if err != nil {
		jsonErr(c, err)
		return
	}
	now := time.Now().UTC()
	records := make([]entity.CommentRecord, 0, len(comments))
	for i := range comments {
		cm := &comments[i]
		records = append(records, entity.NewCommentRecord(cm, locale.Elapsed(c, now, cm.CreatedAt)))
	}
	jsonObj(c, records, nil)
}

func (a *CommentController) add(c *gin.Context) {
	var form entity.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		jsonErr(c, common.ErrInvalidForm)
		return
	}
	entryID, err := parseID(form.EntryId, "entry_id")
	if err != nil {
		jsonErr(c, err)
		return
	}
	comment, err := a.commentService.Add(c.Request.Context(), entryID, getLoginUser(c), form.Text)
	if err != nil {
		jsonErr(c, err)
		return
	}
	jsonMsgObj(c, I18nWeb(c, "success.commentAdded"), gin.H{"id": comment.Id}, nil)
}
