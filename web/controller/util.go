package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/entity"

	"github.com/gin-gonic/gin"
)

// getRemoteIp returns the client address. Forwarding headers count only
// when the peer is one of the trusted proxies.
func getRemoteIp(c *gin.Context) string {
	return c.ClientIP()
}

// jsonMsg sends a success envelope carrying a message, or the error
// envelope for err.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonObj sends a success envelope carrying data, or the error envelope
// for err.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	if err != nil {
		jsonErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Msg{
		Success: true,
		Msg:     msg,
		Data:    obj,
	})
}

// jsonErr sends the failure envelope with the status matching the error
// kind. Store failures are logged and reported with a generic message.
func jsonErr(c *gin.Context, err error) {
	kind := common.KindOf(err)
	code, field := common.CodeOf(err)
	if kind == common.KindStore {
		logger.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.Debugf("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	var params []string
	if field != "" {
		params = append(params, "Field=="+field)
	}
	c.JSON(statusOf(kind), entity.Msg{
		Success: false,
		Error:   I18nWeb(c, "error."+code, params...),
		Code:    code,
		Field:   field,
	})
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindUnauthenticated:
		return http.StatusUnauthorized
	case common.KindForbidden:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// parseID parses a positive integer id taken from field.
func parseID(raw, field string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, common.WithField(common.ErrInvalidID, field)
	}
	return id, nil
}
