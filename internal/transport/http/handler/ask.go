package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/app"
	"lecture-qa/internal/transport/http/middleware"
	"lecture-qa/internal/transport/http/response"
)

// CredentialHeader carries the caller's own LLM token.
const CredentialHeader = "X-LLM-Token"

type AskHandler struct {
	lectureService *app.LectureService
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

func NewAskHandler(lectureService *app.LectureService) *AskHandler {
	return &AskHandler{lectureService: lectureService}
}

// Ask answers one question. Generation failures still return 200; the outcome
// field and the answer text describe them.
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.lectureService.Ask(c.Request.Context(), app.AskInput{
		SessionID:  middleware.SessionID(c),
		Question:   req.Question,
		Credential: c.GetHeader(CredentialHeader),
	})
	if err != nil {
		writeServiceError(c, err, "answer question failed")
		return
	}
	response.OK(c, result)
}
