package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/assess"
	"github.com/Sendient/ai-detector-sub000/internal/assign"
	"github.com/Sendient/ai-detector-sub000/internal/bulk"
	"github.com/Sendient/ai-detector-sub000/internal/client"
	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/poller"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	engerrors "github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// Handler maps UI actions onto the engine. Errors stay scoped to the
// acted-upon entity: every failure response names the document or import
// it belongs to, never a global banner.
type Handler struct {
	cfg        *config.Config
	registry   *registry.Registry
	poller     *poller.Poller
	controller *assess.Controller
	assigner   *assign.Resolver
	importer   *bulk.Processor
	backend    *client.Client
	log        zerolog.Logger
}

func NewHandler(
	cfg *config.Config,
	reg *registry.Registry,
	p *poller.Poller,
	controller *assess.Controller,
	assigner *assign.Resolver,
	importer *bulk.Processor,
	backend *client.Client,
) *Handler {
	return &Handler{
		cfg:        cfg,
		registry:   reg,
		poller:     p,
		controller: controller,
		assigner:   assigner,
		importer:   importer,
		backend:    backend,
		log:        logger.Component("api"),
	}
}

func (h *Handler) status(err error) int {
	var (
		authErr      engerrors.AuthError
		validErr     engerrors.ValidationError
		transportErr engerrors.TransportError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.Is(err, engerrors.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, engerrors.ErrNotAssessable),
		errors.Is(err, engerrors.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, engerrors.ErrConfirmationNeeded),
		errors.Is(err, engerrors.ErrNoValidRows),
		errors.Is(err, engerrors.ErrInvalidFileFormat):
		return http.StatusBadRequest
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error, scope gin.H) {
	body := gin.H{"error": engerrors.Detail(err)}
	for k, v := range scope {
		body[k] = v
	}
	c.JSON(h.status(err), body)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.registry.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) RefreshDocuments(c *gin.Context) {
	if err := h.poller.Refresh(c.Request.Context(), false); err != nil {
		h.fail(c, err, nil)
		return
	}

	docs, err := h.registry.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	doc, err := h.backend.UploadDocument(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		h.fail(c, err, gin.H{"filename": fileHeader.Filename})
		return
	}

	if err := h.poller.Refresh(c.Request.Context(), true); err != nil {
		h.log.Warn().Err(err).Msg("Post-upload refresh failed")
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) BatchUploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	files := make([]client.UploadFile, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "filename": header.Filename})
			return
		}
		closers = append(closers, f)
		files = append(files, client.UploadFile{Filename: header.Filename, Reader: f})
	}

	resp, err := h.backend.BatchUploadDocuments(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	if err := h.poller.Refresh(c.Request.Context(), true); err != nil {
		h.log.Warn().Err(err).Msg("Post-batch-upload refresh failed")
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AssessDocument(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.Assess(c.Request.Context(), id); err != nil {
		h.fail(c, err, gin.H{"document_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": id, "operation": h.controller.Operation(id)})
}

func (h *Handler) CancelAssessment(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.Cancel(c.Request.Context(), id); err != nil {
		h.fail(c, err, gin.H{"document_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": id, "operation": h.controller.Operation(id)})
}

func (h *Handler) ReprocessDocument(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "document_id": id})
		return
	}

	if err := h.controller.Reprocess(c.Request.Context(), id, req.Confirmed); err != nil {
		h.fail(c, err, gin.H{"document_id": id})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"document_id": id, "operation": h.controller.Operation(id)})
}

func (h *Handler) GetOperation(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, h.controller.Operation(id))
}

func (h *Handler) AssignStudent(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required", "document_id": id})
		return
	}

	doc, err := h.assigner.AssignStudent(c.Request.Context(), id, req.StudentID)
	if err != nil {
		h.fail(c, err, gin.H{"document_id": id})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) ListCandidateStudents(c *gin.Context) {
	id := c.Param("id")

	students, err := h.assigner.ListCandidates(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, gin.H{"document_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ImportStudents accepts either a raw delimited-text body or a multipart
// upload; .xlsx files go through the workbook strategy.
func (h *Handler) ImportStudents(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "filename": fileHeader.Filename})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "filename": fileHeader.Filename})
			return
		}

		var report interface{}
		if strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
			report, err = h.importer.ProcessExcel(c.Request.Context(), data)
		} else {
			report, err = h.importer.ProcessCSV(c.Request.Context(), data)
		}
		if err != nil {
			h.fail(c, err, gin.H{"filename": fileHeader.Filename})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	report, err := h.importer.ProcessCSV(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
