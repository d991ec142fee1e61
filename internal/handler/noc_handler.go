package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/dto"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/service"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/export"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/response"
)

// NOCHandler exposes the request workflow over HTTP.
type NOCHandler struct {
	service  *service.NOCService
	exporter *export.CSVExporter
}

// NewNOCHandler creates a new handler.
func NewNOCHandler(svc *service.NOCService, exporter *export.CSVExporter) *NOCHandler {
	return &NOCHandler{service: svc, exporter: exporter}
}

// Create godoc
// @Summary Submit NOC request
// @Description Submit a new no-objection certificate request
// @Tags NOC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateNOCRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /noc-requests [post]
func (h *NOCHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateNOCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	request, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// ListMine godoc
// @Summary List own NOC requests
// @Description List requests submitted by the current user, newest first
// @Tags NOC
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /noc-requests/mine [get]
func (h *NOCHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListForStudent(c.Request.Context(), claims.UserID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// ListPending godoc
// @Summary List pending NOC requests
// @Description List the review queue, oldest first
// @Tags NOC
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /noc-requests/pending [get]
func (h *NOCHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListPendingForReview(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get NOC request
// @Description Fetch a single request by id
// @Tags NOC
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /noc-requests/{id} [get]
func (h *NOCHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Review godoc
// @Summary Review NOC request
// @Description Approve or reject a pending request. A request is decided at most once.
// @Tags NOC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewNOCRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /noc-requests/{id}/review [post]
func (h *NOCHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewNOCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	request, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// ExportCSV godoc
// @Summary Export NOC requests
// @Description Download all requests as CSV
// @Tags NOC
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV content"
// @Failure 403 {object} response.Envelope
// @Router /noc-requests/export [get]
func (h *NOCHandler) ExportCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListAll(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"id", "student_id", "company", "position", "duration", "start_date", "status", "submitted_at", "reviewed_by", "reviewed_at"},
	}
	for _, request := range requests {
		row := map[string]string{
			"id":           request.ID,
			"student_id":   request.StudentID,
			"company":      request.Company,
			"position":     request.Position,
			"duration":     request.Duration,
			"start_date":   request.StartDate.Format("2006-01-02"),
			"status":       string(request.Status),
			"submitted_at": request.SubmittedAt.Format(time.RFC3339),
		}
		if request.ReviewedBy != nil {
			row["reviewed_by"] = *request.ReviewedBy
		}
		if request.ReviewedAt != nil {
			row["reviewed_at"] = request.ReviewedAt.Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	data, err := h.exporter.Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("noc-requests-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv", data)
}
