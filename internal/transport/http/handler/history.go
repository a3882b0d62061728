package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/app"
	"lecture-qa/internal/transport/http/middleware"
	"lecture-qa/internal/transport/http/response"
)

type HistoryHandler struct {
	lectureService *app.LectureService
}

func NewHistoryHandler(lectureService *app.LectureService) *HistoryHandler {
	return &HistoryHandler{lectureService: lectureService}
}

func (h *HistoryHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.lectureService.History(c.Request.Context(), middleware.SessionID(c), limit)
	if err != nil {
		writeServiceError(c, err, "get history failed")
		return
	}
	response.OK(c, entries)
}

func (h *HistoryHandler) Clear(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if err := h.lectureService.ClearHistory(c.Request.Context(), sessionID); err != nil {
		writeServiceError(c, err, "clear history failed")
		return
	}
	response.OK(c, gin.H{"cleared_session_id": sessionID})
}
