package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

func TestCertificateHandlerVerifyRequiresNumber(t *testing.T) {
	h := NewCertificateHandler(nil)

	c, rec := testContext(t, http.MethodGet, "/certificates/verify", nil, nil)
	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCertificateHandlerIssueRequiresCapability(t *testing.T) {
	h := NewCertificateHandler(nil)

	c, rec := testContext(t, http.MethodPost, "/certificates/requests/req-1/issue", nil, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Issue(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCertificateHandlerIssueRequiresAuth(t *testing.T) {
	h := NewCertificateHandler(nil)

	c, rec := testContext(t, http.MethodPost, "/certificates/requests/req-1/issue", nil, nil)
	h.Issue(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
