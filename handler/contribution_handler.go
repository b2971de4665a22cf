package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/contribution-calculator/dto"
	"github.com/Aashish23092/contribution-calculator/service"
	"github.com/Aashish23092/contribution-calculator/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ContributionHandler struct {
	svc         *service.ContributionService
	maxFileSize int64
	logger      *zap.Logger
}

func NewContributionHandler(svc *service.ContributionService, maxFileSize int64, logger *zap.Logger) *ContributionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributionHandler{
		svc:         svc,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// UploadPolicies handles POST /policies/upload
func (h *ContributionHandler) UploadPolicies(c *gin.Context) {
	h.upload(c, dto.RecordKindPolicy, h.svc.ImportPolicies)
}

// UploadSalaries handles POST /salaries/upload
func (h *ContributionHandler) UploadSalaries(c *gin.Context) {
	h.upload(c, dto.RecordKindSalary, h.svc.ImportSalaries)
}

type importFunc func(ctx context.Context, data []byte, mode utils.DecodeMode) (int, error)

func (h *ContributionHandler) upload(c *gin.Context, kind dto.RecordKind, importSheet importFunc) {
	file, _ := c.FormFile("file")
	req := &dto.UploadRequest{
		File:   file,
		Strict: c.Query("mode") == "strict",
	}
	if err := req.Validate(h.maxFileSize); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_UPLOAD", err)
		return
	}

	f, err := req.File.Open()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "UPLOAD_FAILED", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "UPLOAD_FAILED", err)
		return
	}

	mode := utils.DecodeTolerant
	if req.Strict {
		mode = utils.DecodeStrict
	}

	n, err := importSheet(c.Request.Context(), data, mode)
	if err != nil {
		h.sendClassified(c, err)
		return
	}

	h.logger.Info("Upload completed",
		zap.String("kind", string(kind)),
		zap.String("filename", req.File.Filename),
		zap.Int("records", n))
	c.JSON(http.StatusOK, dto.UploadResponse{Kind: kind, Imported: n})
}

// ListPolicies handles GET /policies
func (h *ContributionHandler) ListPolicies(c *gin.Context) {
	policies, err := h.svc.ListPolicies(c.Request.Context())
	if err != nil {
		h.sendClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PolicyListResponse{Policies: policies})
}

// ListSalaries handles GET /salaries
func (h *ContributionHandler) ListSalaries(c *gin.Context) {
	salaries, err := h.svc.ListSalaries(c.Request.Context())
	if err != nil {
		h.sendClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SalaryListResponse{Salaries: salaries})
}

// Calculate handles POST /results/calculate
func (h *ContributionHandler) Calculate(c *gin.Context) {
	results, err := h.svc.Calculate(c.Request.Context())
	if err != nil {
		h.sendClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResultListResponse{Results: results, Count: len(results)})
}

// ListResults handles GET /results?name=
func (h *ContributionHandler) ListResults(c *gin.Context) {
	results, err := h.svc.ListResults(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.sendClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResultListResponse{Results: results, Count: len(results)})
}

// ExportResults handles GET /results/export
func (h *ContributionHandler) ExportResults(c *gin.Context) {
	data, filename, err := h.svc.ExportResults(c.Request.Context())
	if err != nil {
		h.sendClassified(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// sendClassified maps service errors to HTTP status codes.
func (h *ContributionHandler) sendClassified(c *gin.Context, err error) {
	var (
		parseErr *dto.ParseError
		calcErr  *dto.CalcError
		storeErr *dto.StoreError
	)

	switch {
	case errors.As(err, &parseErr):
		h.sendError(c, http.StatusBadRequest, string(parseErr.Kind), err)
	case errors.As(err, &calcErr):
		status := http.StatusBadGateway
		switch calcErr.Kind {
		case dto.CalcPolicyNotFound:
			status = http.StatusNotFound
		case dto.CalcPolicyAmbiguous:
			status = http.StatusConflict
		}
		h.sendError(c, status, string(calcErr.Kind), err)
	case errors.As(err, &storeErr):
		h.sendError(c, http.StatusBadGateway, "STORE_ERROR", err)
	default:
		h.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}

// sendError sends a structured error response
func (h *ContributionHandler) sendError(c *gin.Context, statusCode int, code string, err error) {
	h.logger.Warn("Request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", statusCode),
		zap.Error(err))

	resp := dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    statusCode,
	}
	var parseErr *dto.ParseError
	if errors.As(err, &parseErr) {
		resp.Missing = parseErr.Missing
		resp.Issues = parseErr.Issues
	}
	c.JSON(statusCode, resp)
}
