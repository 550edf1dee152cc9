package controller

import (
	"strings"
	"time"

	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/locale"
	"github.com/mapavioleta/mapavioleta/web/service"

	"github.com/gin-gonic/gin"
)

// PointController serves map entries: filtered listing, single lookup and
// the create/edit/delete actions.
type PointController struct {
	BaseController

	pointService service.PointService
}

func NewPointController(g *gin.RouterGroup) *PointController {
	a := &PointController{}
	a.initRouter(g)
	return a
}

func (a *PointController) initRouter(g *gin.RouterGroup) {
	g.Use(a.checkLogin)
	g.GET("", a.list)
	g.GET("/:id", a.get)
	g.POST("", a.modify)
}

func (a *PointController) list(c *gin.Context) {
	var q entity.PointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		jsonErr(c, common.ErrInvalidForm)
		return
	}

	filter := service.EntryFilter{
		Category: strings.TrimSpace(q.Type),
		Owner:    q.Owner,
		Term:     q.Term,
	}
	var err error
	if filter.From, err = service.ParseEventTime(q.DateFrom, "date_from"); err != nil {
		jsonErr(c, err)
		return
	}
	if filter.To, err = service.ParseRangeEnd(q.DateTo, "date_to"); err != nil {
		jsonErr(c, err)
		return
	}

	entries, err := a.pointService.Query(c.Request.Context(), filter)
	if err != nil {
		jsonErr(c, err)
		return
	}
	now := time.Now().UTC()
	records := make([]entity.EntryRecord, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		records = append(records, entity.NewEntryRecord(e, locale.Elapsed(c, now, e.CreatedAt)))
	}
	jsonObj(c, records, nil)
}

func (a *PointController) get(c *gin.Context) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		jsonErr(c, err)
		return
	}
	entry, err := a.pointService.Get(c.Request.Context(), id)
	if err != nil {
		jsonErr(c, err)
		return
	}
	jsonObj(c, entity.NewEntryRecord(entry, locale.Elapsed(c, time.Now().UTC(), entry.CreatedAt)), nil)
}

func (a *PointController) modify(c *gin.Context) {
	var form entity.PointForm
	if err := c.ShouldBind(&form); err != nil {
		jsonErr(c, common.ErrInvalidForm)
		return
	}

	ctx := c.Request.Context()
	user := getLoginUser(c)
	fields := service.EntryFields{
		Category:    form.Type,
		Latitude:    form.Latitude,
		Longitude:   form.Longitude,
		Observation: form.Observation,
		Feeling:     form.Feeling,
		Need:        form.Need,
		Request:     form.Request,
		Note:        form.Note,
		EventAt:     form.EventAt,
	}

	switch strings.ToLower(strings.TrimSpace(form.Action)) {
	case "create":
		id, err := a.pointService.Create(ctx, user, fields)
		if err != nil {
			jsonErr(c, err)
			return
		}
		jsonMsgObj(c, I18nWeb(c, "success.entryCreated"), gin.H{"id": id}, nil)
	case "edit":
		id, err := parseID(form.EntryId, "entry_id")
		if err != nil {
			jsonErr(c, err)
			return
		}
		err = a.pointService.Update(ctx, id, user, fields)
		jsonMsg(c, I18nWeb(c, "success.entryUpdated"), err)
	case "delete":
		id, err := parseID(form.EntryId, "entry_id")
		if err != nil {
			jsonErr(c, err)
			return
		}
		err = a.pointService.Delete(ctx, id, user)
		jsonMsg(c, I18nWeb(c, "success.entryDeleted"), err)
	default:
		jsonErr(c, common.WithField(common.ErrInvalidAction, "action"))
	}
}
