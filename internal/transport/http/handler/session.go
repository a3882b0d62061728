package handler

import (
	"github.com/gin-gonic/gin"

	"lecture-qa/internal/app"
	"lecture-qa/internal/transport/http/response"
)

type SessionHandler struct {
	lectureService *app.LectureService
}

func NewSessionHandler(lectureService *app.LectureService) *SessionHandler {
	return &SessionHandler{lectureService: lectureService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	grant, err := h.lectureService.CreateSession(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "create session failed")
		return
	}
	response.OK(c, grant)
}
