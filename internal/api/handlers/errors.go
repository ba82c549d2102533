package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// respondError maps service errors onto status codes. Internal failures never leak details.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, apperrors.ErrAlreadyPaid):
		status, msg = http.StatusBadRequest, "Already paid"
	case errors.Is(err, apperrors.ErrBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	}

	log := middleware.GetLoggerFromContext(c)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Info("request rejected", "status", status, "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// idParam parses the :id path parameter, answering 400 when it is malformed.
func idParam(c *gin.Context) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid id")
		return utils.SixID{}, false
	}
	return id, true
}

// actorSixID returns the signed-in actor id as a SixID, answering 401 when it is not one.
func actorSixID(c *gin.Context) (utils.SixID, bool) {
	id, err := utils.ParseSixID(middleware.ActorID(c))
	if err != nil {
		respondError(c, apperrors.ErrUnauthorized)
		return utils.SixID{}, false
	}
	return id, true
}
