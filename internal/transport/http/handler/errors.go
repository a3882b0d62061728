package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/app"
	"lecture-qa/internal/rag"
	"lecture-qa/internal/transport/http/response"
)

// writeServiceError maps service and pipeline errors onto the envelope.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNoUploads):
		response.Error(c, http.StatusBadRequest, response.CodeNoUploads, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, rag.ErrIngestion):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeIngestionFailed, err.Error())
	case errors.Is(err, rag.ErrEmbedding):
		response.Error(c, http.StatusBadGateway, response.CodeEmbeddingFailed, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
