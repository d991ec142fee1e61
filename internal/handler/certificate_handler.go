package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/service"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/response"
)

// CertificateHandler exposes certificate issuance, download, and
// verification over HTTP.
type CertificateHandler struct {
	service *service.CertificateService
}

// NewCertificateHandler creates a new handler.
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Issue godoc
// @Summary Issue certificate for approved request
// @Description Mint the certificate for an approved request. Idempotent: repeated calls return the same certificate.
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /certificates/requests/{id}/issue [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if !claims.HasCapability(models.CapabilityIssueCertificate) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "issuance capability required"))
		return
	}

	cert, err := h.service.IssueForRequest(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, cert)
}

// Download godoc
// @Summary Download certificate PDF
// @Description Render and stream the certificate document
// @Tags Certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {string} string "PDF content"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, cert, err := h.service.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if cert.StudentID != claims.UserID && !claims.HasCapability(models.CapabilityReadAllNOC) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	filename := fmt.Sprintf("noc-%s.pdf", strings.ReplaceAll(cert.Number, "/", "-"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// DownloadLink godoc
// @Summary Create signed download link
// @Description Return an expiring signed URL for the certificate PDF
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/download-link [get]
func (h *CertificateHandler) DownloadLink(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	link, err := h.service.DownloadLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadByToken godoc
// @Summary Download certificate by signed token
// @Description Stream the certificate PDF referenced by a signed, expiring token. No authentication required.
// @Tags Certificates
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {string} string "PDF content"
// @Failure 403 {object} response.Envelope
// @Router /certificates/download/{token} [get]
func (h *CertificateHandler) DownloadByToken(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, download.Filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.File)
}

// Verify godoc
// @Summary Verify certificate number
// @Description Public lookup of a certificate by its printed number
// @Tags Certificates
// @Produce json
// @Param number query string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /certificates/verify [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	number := strings.TrimSpace(c.Query("number"))
	if number == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "number query parameter is required"))
		return
	}

	result, err := h.service.Verify(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
