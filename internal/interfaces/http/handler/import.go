package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	importapp "github.com/ChenZongYanLive/OrderManagementSystem/internal/application/import"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/bulk"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/tabular"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/dto"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultMaxUploadSize is the upload limit used when none is configured (10MB)
const DefaultMaxUploadSize = 10 * 1024 * 1024

// ImportService runs import batches over uploaded files.
type ImportService interface {
	ImportFile(ctx context.Context, req importapp.ImportRequest) (*importapp.ImportResult, error)
	ImportFileWithMapping(ctx context.Context, req importapp.ImportRequest, m mapping.FieldMapping) (*importapp.ImportResult, error)
	Discard(ctx context.Context, path string)
}

// PreviewService samples uploaded files.
type PreviewService interface {
	PreviewFile(ctx context.Context, path string, kind mapping.Kind, sampleSize int) (*importapp.PreviewResult, error)
}

// MappingSource resolves the mapping of a mapped import when the request
// does not carry one inline.
type MappingSource interface {
	Get(ctx context.Context, id uuid.UUID) (*mapping.MappingTemplate, error)
	FindDefault(ctx context.Context, kind mapping.Kind) (*mapping.MappingTemplate, error)
}

// ImportLogService answers queries about past batches.
type ImportLogService interface {
	List(ctx context.Context, page shared.PageRequest) (shared.Paginated[*bulk.ImportLog], error)
	Get(ctx context.Context, batchID string) (*bulk.ImportLog, error)
	ErrorsCSV(ctx context.Context, batchID string) ([]byte, error)
	SourceURL(ctx context.Context, batchID string) (*importapp.SourceLink, error)
}

// UploadConfig controls where uploads are stored and how large they may be
type UploadConfig struct {
	Dir         string
	MaxFileSize int64
	PreviewRows int
}

// ImportHandler handles file upload, preview and import log endpoints
type ImportHandler struct {
	BaseHandler
	imports   ImportService
	previews  PreviewService
	templates MappingSource
	logs      ImportLogService
	cfg       UploadConfig
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(imports ImportService, previews PreviewService, templates MappingSource, logs ImportLogService, cfg UploadConfig) *ImportHandler {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxUploadSize
	}
	return &ImportHandler{
		imports:   imports,
		previews:  previews,
		templates: templates,
		logs:      logs,
		cfg:       cfg,
	}
}

// upload is a validated multipart file not yet written to disk
type upload struct {
	header *multipart.FileHeader
	kind   mapping.Kind
}

// readUpload checks the multipart "file" field. It answers the request and
// returns false when the file is missing, too large or of an unknown kind.
func (h *ImportHandler) readUpload(c *gin.Context) (*upload, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeFileRequired, "file is required")
		return nil, false
	}
	if header.Size > h.cfg.MaxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds maximum size of %dMB", h.cfg.MaxFileSize/(1024*1024)))
		return nil, false
	}
	kind, err := tabular.DetectKind(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeUnsupportedKind,
			"unsupported file type, must be one of: csv, excel, json")
		return nil, false
	}
	return &upload{header: header, kind: kind}, true
}

// save writes the upload under the upload dir with a random name
func (h *ImportHandler) save(c *gin.Context, u *upload) (string, bool) {
	path := filepath.Join(h.cfg.Dir, uuid.NewString()+filepath.Ext(u.header.Filename))
	if err := c.SaveUploadedFile(u.header, path); err != nil {
		h.InternalError(c, "failed to store uploaded file")
		return "", false
	}
	return path, true
}

// Upload imports a file with well-known header spellings
// POST /api/v1/import/upload
func (h *ImportHandler) Upload(c *gin.Context) {
	u, ok := h.readUpload(c)
	if !ok {
		return
	}
	path, ok := h.save(c, u)
	if !ok {
		return
	}

	result, err := h.imports.ImportFile(c.Request.Context(), importapp.ImportRequest{
		Path:     path,
		FileName: u.header.Filename,
		Kind:     u.kind,
	})
	if err != nil {
		h.importError(c, err)
		return
	}
	h.Success(c, result)
}

// UploadWithMapping imports a file through a header mapping taken from the
// "mapping" form field, the "template_id" form field, or the default
// template of the file's kind, in that order.
// POST /api/v1/import/upload-with-mapping
func (h *ImportHandler) UploadWithMapping(c *gin.Context) {
	u, ok := h.readUpload(c)
	if !ok {
		return
	}
	m, err := h.resolveMapping(c, u.kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	path, ok := h.save(c, u)
	if !ok {
		return
	}

	result, err := h.imports.ImportFileWithMapping(c.Request.Context(), importapp.ImportRequest{
		Path:     path,
		FileName: u.header.Filename,
		Kind:     u.kind,
	}, m)
	if err != nil {
		h.importError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) resolveMapping(c *gin.Context, kind mapping.Kind) (mapping.FieldMapping, error) {
	ctx := c.Request.Context()

	if raw := c.PostForm("mapping"); raw != "" {
		var m mapping.FieldMapping
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, shared.NewValidationError("mapping must be a JSON object of header to field")
		}
		return m, nil
	}

	if raw := c.PostForm("template_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, shared.NewValidationError("template_id must be a UUID")
		}
		t, err := h.templates.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return t.Mapping, nil
	}

	t, err := h.templates.FindDefault(ctx, kind)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, shared.NewValidationError(
			fmt.Sprintf("no mapping given and no default template exists for %s files", kind))
	}
	return t.Mapping, nil
}

// importError answers a failed import. File-level failures name the batch
// that recorded them.
func (h *ImportHandler) importError(c *gin.Context, err error) {
	var failed *importapp.BatchFailedError
	if !errors.As(err, &failed) {
		h.HandleError(c, err)
		return
	}

	code := dto.ErrCodeInternal
	message := "An unexpected error occurred"
	var de *shared.DomainError
	if errors.As(failed.Err, &de) {
		code = dto.NormalizeErrorCode(de.Code)
		message = de.Message
	}
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))
	resp.Data = gin.H{"batch_id": failed.BatchID}
	c.JSON(dto.GetHTTPStatus(code), resp)
}

// Preview samples a file and suggests field types and a mapping. The file
// is removed afterwards.
// POST /api/v1/import/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	sampleSize := h.cfg.PreviewRows
	if raw := c.DefaultPostForm("sample_size", c.Query("sample_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.HandleError(c, shared.NewValidationError("sample_size must be a positive integer"))
			return
		}
		sampleSize = n
	}

	u, ok := h.readUpload(c)
	if !ok {
		return
	}
	path, ok := h.save(c, u)
	if !ok {
		return
	}
	defer h.imports.Discard(c.Request.Context(), path)

	result, err := h.previews.PreviewFile(c.Request.Context(), path, u.kind, sampleSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PreviewResponse{
		FileType:         result.Kind,
		Headers:          result.Headers,
		SampleRecords:    result.SampleRecords,
		InferredTypes:    result.InferredTypes,
		SuggestedMapping: result.SuggestedMapping,
		DefaultTemplate:  dto.ToTemplateResponse(result.DefaultTemplate),
		TotalRecords:     result.TotalRecords,
	})
}

// ListLogs returns a page of import batches, newest first
// GET /api/v1/import/logs
func (h *ImportHandler) ListLogs(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.logs.List(c.Request.Context(), shared.PageRequest{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToImportLogResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetLog returns one batch with its error details
// GET /api/v1/import/logs/:batchId
func (h *ImportHandler) GetLog(c *gin.Context) {
	l, err := h.logs.Get(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToImportLogResponse(l))
}

// ErrorsCSV downloads the recorded errors of a batch
// GET /api/v1/import/logs/:batchId/errors.csv
func (h *ImportHandler) ErrorsCSV(c *gin.Context) {
	batchID := c.Param("batchId")
	data, err := h.logs.ErrorsCSV(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="import-errors-%s.csv"`, batchID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Source redirects to a time-limited link to the archived source file
// GET /api/v1/import/logs/:batchId/source
func (h *ImportHandler) Source(c *gin.Context) {
	link, err := h.logs.SourceURL(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, link.URL)
}
