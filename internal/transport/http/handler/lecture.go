package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"lecture-qa/internal/app"
	"lecture-qa/internal/rag"
	"lecture-qa/internal/transport/http/middleware"
	"lecture-qa/internal/transport/http/response"
)

type LectureHandler struct {
	lectureService *app.LectureService
	maxFileBytes   int64
}

func NewLectureHandler(lectureService *app.LectureService, maxUploadMB int) *LectureHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &LectureHandler{
		lectureService: lectureService,
		maxFileBytes:   int64(maxUploadMB) << 20,
	}
}

// Upload replaces the indexed lectures with the PDFs sent in the "files" field.
func (h *LectureHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeNoUploads, "no files uploaded")
		return
	}

	uploads := make([]rag.Upload, 0, len(files))
	for _, file := range files {
		if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile,
				fmt.Sprintf("%s: only PDF files are allowed", file.Filename))
			return
		}
		if file.Size > h.maxFileBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge,
				fmt.Sprintf("%s: file too large (max %dMB)", file.Filename, h.maxFileBytes>>20))
			return
		}

		f, err := file.Open()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
			return
		}
		uploads = append(uploads, rag.Upload{Name: filepath.Base(file.Filename), Data: data})
	}

	report, err := h.lectureService.IngestLectures(c.Request.Context(), uploads)
	if err != nil {
		writeServiceError(c, err, "ingest lectures failed")
		return
	}
	response.OK(c, report)
}

func (h *LectureHandler) Status(c *gin.Context) {
	report, err := h.lectureService.Status(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeServiceError(c, err, "get status failed")
		return
	}
	response.OK(c, report)
}
