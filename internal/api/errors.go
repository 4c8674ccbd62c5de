package api

import (
	"errors"
	"net/http"

	appErr "truco-service/pkg/errors"
	"truco-service/pkg/logger"
	"truco-service/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, appErr.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErr.ErrRoomFull),
		errors.Is(err, appErr.ErrGameInProgress),
		errors.Is(err, appErr.ErrRoomNotReady):
		return http.StatusConflict
	case errors.Is(err, appErr.ErrWrongRoomPassword),
		errors.Is(err, appErr.ErrUnauthorized),
		errors.Is(err, appErr.ErrInvalidPlayer):
		return http.StatusForbidden
	case errors.Is(err, appErr.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, appErr.ErrUnsupportedGameType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, status, "internal error")
		return
	}
	response.Error(c, status, err.Error())
}
