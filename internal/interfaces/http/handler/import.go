package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/importapp"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/fetch"
	csvimport "github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/import"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
)

// IdempotencyHeader lets clients retry an import without posting it twice
const IdempotencyHeader = "Idempotency-Key"

// FeedFetcher downloads a remote feed
type FeedFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Document, error)
}

// ImportHandler serves reconciliation imports and their history
type ImportHandler struct {
	BaseHandler
	service     *importapp.Service
	fetcher     FeedFetcher
	maxFileSize int64
}

// NewImportHandler creates a new ImportHandler. A nil fetcher disables
// URL imports.
func NewImportHandler(service *importapp.Service, fetcher FeedFetcher, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &ImportHandler{service: service, fetcher: fetcher, maxFileSize: maxFileSize}
}

// Profiles godoc
// @ID           listImportProfiles
// @Summary      List feed profiles
// @Description  Names accepted in the profile field of every import
// @Tags         imports
// @Produce      json
// @Success      200 {object} APIResponse[dto.ImportProfilesResponse]
// @Security     BearerAuth
// @Router       /imports/profiles [get]
func (h *ImportHandler) Profiles(c *gin.Context) {
	h.Success(c, dto.ImportProfilesResponse{Profiles: h.service.Profiles()})
}

// Upload godoc
// @ID           importUpload
// @Summary      Import an uploaded feed
// @Description  Parses the file with the selected profile and posts every acceptable row in one transaction. Workbooks are read from their active sheet. Rejected rows are reported, not fatal.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV, TSV or xlsx feed"
// @Param        profile formData string true "Feed profile"
// @Param        bank_account formData string false "Bank account receiving new transactions" format(uuid)
// @Param        category formData string false "Expense category override" format(uuid)
// @Param        Idempotency-Key header string false "Retry key"
// @Success      200 {object} APIResponse[importapp.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/upload [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var form dto.ImportUploadForm
	if err := c.ShouldBind(&form); err != nil {
		h.BindError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.tooLarge(c)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.BadRequest(c, "file could not be read")
		return
	}
	if int64(len(data)) > h.maxFileSize {
		h.tooLarge(c)
		return
	}

	h.run(c, tenantID, form.Profile, form.BankAccountID, form.CategoryID, importapp.ImportRequest{
		FileName: header.Filename,
		Source:   importapp.SourceUpload,
		Data:     data,
	})
}

// Text godoc
// @ID           importText
// @Summary      Import a pasted feed
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportTextRequest true "Feed text"
// @Param        Idempotency-Key header string false "Retry key"
// @Success      200 {object} APIResponse[importapp.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/text [post]
func (h *ImportHandler) Text(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req dto.ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if int64(len(req.Content)) > h.maxFileSize {
		h.tooLarge(c)
		return
	}

	name := req.FileName
	if name == "" {
		name = "pasted.csv"
	}
	h.run(c, tenantID, req.Profile, req.BankAccountID, req.CategoryID, importapp.ImportRequest{
		FileName: name,
		Source:   importapp.SourceText,
		Data:     []byte(req.Content),
	})
}

// URL godoc
// @ID           importURL
// @Summary      Import a remote feed
// @Description  Downloads the feed, which must be text and within the size limit, then imports it
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportURLRequest true "Feed location"
// @Param        Idempotency-Key header string false "Retry key"
// @Success      200 {object} APIResponse[importapp.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/url [post]
func (h *ImportHandler) URL(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	if h.fetcher == nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "URL imports are disabled")
		return
	}

	var req dto.ImportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		h.fetchError(c, err)
		return
	}

	h.run(c, tenantID, req.Profile, req.BankAccountID, req.CategoryID, importapp.ImportRequest{
		FileName: doc.FileName,
		Source:   importapp.SourceURL,
		Data:     doc.Data,
	})
}

func (h *ImportHandler) run(c *gin.Context, tenantID uuid.UUID, profile, account, category string, req importapp.ImportRequest) {
	var err error
	if req.BankAccountID, err = optionalUUID(account); err != nil {
		h.BadRequest(c, "Invalid bank_account format")
		return
	}
	if req.CategoryID, err = optionalUUID(category); err != nil {
		h.BadRequest(c, "Invalid category format")
		return
	}
	switch {
	case req.Source == importapp.SourceUpload && csvimport.IsWorkbook(req.Data):
		if req.Records, err = csvimport.ReadWorkbook(req.Data); err != nil {
			h.workbookError(c, err)
			return
		}
	case req.Source != importapp.SourceText:
		if contentType, ok := fetch.DetectText(req.Data); !ok && len(req.Data) > 0 {
			h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeUnsupportedMedia,
				fmt.Sprintf("file must be CSV, TSV or xlsx, got %s", contentType))
			return
		}
	}
	req.Profile = profile
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyHeader))

	result, err := h.service.Import(c.Request.Context(), tenantID, userFrom(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) workbookError(c *gin.Context, err error) {
	if errors.Is(err, csvimport.ErrEmptyFile) {
		h.BadRequest(c, "workbook has no rows")
		return
	}
	h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeUnsupportedMedia,
		fmt.Sprintf("file is not a readable xlsx workbook: %v", err))
}

func (h *ImportHandler) tooLarge(c *gin.Context) {
	h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge,
		fmt.Sprintf("file exceeds the maximum size of %d bytes", h.maxFileSize))
}

func (h *ImportHandler) fetchError(c *gin.Context, err error) {
	var statusErr *fetch.StatusError
	switch {
	case errors.Is(err, fetch.ErrUnsupportedURL), errors.Is(err, fetch.ErrForbiddenHost):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, fetch.ErrTooLarge):
		h.tooLarge(c)
	case errors.Is(err, fetch.ErrNotText):
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeUnsupportedMedia, err.Error())
	case errors.As(err, &statusErr):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeFetchFailed, err.Error())
	default:
		h.Error(c, http.StatusBadGateway, dto.ErrCodeFetchFailed, "remote feed could not be downloaded")
	}
}

// ListHistory godoc
// @ID           listImportHistory
// @Summary      List import runs
// @Tags         imports
// @Produce      json
// @Param        search query string false "Search file name or profile"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]importapp.HistoryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports [get]
func (h *ImportHandler) ListHistory(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	runs, total, err := h.service.ListHistory(c.Request.Context(), tenantID, importapp.HistoryListFilter{
		Search:   q.Search,
		Page:     q.page(),
		PageSize: q.pageSize(),
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, runs, total, q.page(), q.pageSize())
}

// GetHistory godoc
// @ID           getImportHistory
// @Summary      Get an import run
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} APIResponse[importapp.HistoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id} [get]
func (h *ImportHandler) GetHistory(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "import")
	if !ok {
		return
	}

	run, err := h.service.GetHistory(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// ArchiveLink godoc
// @ID           getImportArchiveLink
// @Summary      Download link for the raw feed
// @Description  A presigned link to the archived copy of the imported file
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} APIResponse[dto.ArchiveLinkResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id}/archive [get]
func (h *ImportHandler) ArchiveLink(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "import")
	if !ok {
		return
	}

	url, expiresAt, err := h.service.ArchiveURL(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ArchiveLinkResponse{URL: url, ExpiresAt: expiresAt})
}
