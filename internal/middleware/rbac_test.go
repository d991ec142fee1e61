package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s *stubValidator) ValidateToken(string) (*models.JWTClaims, error) {
	return s.claims, s.err
}

func performRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func newProtectedRouter(validator *stubValidator, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(validator)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/protected", handlers...)
	return router
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := newProtectedRouter(&stubValidator{})
	assert.Equal(t, http.StatusUnauthorized, performRequest(router, "").Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router := newProtectedRouter(&stubValidator{})
	assert.Equal(t, http.StatusUnauthorized, performRequest(router, "Token abc").Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	router := newProtectedRouter(&stubValidator{err: appErrors.ErrUnauthorized})
	assert.Equal(t, http.StatusUnauthorized, performRequest(router, "Bearer bad").Code)
}

func TestJWTAcceptsValidToken(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}}
	router := newProtectedRouter(validator)
	assert.Equal(t, http.StatusOK, performRequest(router, "Bearer good").Code)
}

func TestRequireCapability(t *testing.T) {
	officer := &stubValidator{claims: &models.JWTClaims{UserID: "officer-1", Role: models.RolePlacementOfficer}}
	router := newProtectedRouter(officer, RequireCapability(models.CapabilityReviewNOC))
	assert.Equal(t, http.StatusOK, performRequest(router, "Bearer good").Code)

	student := &stubValidator{claims: &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}}
	router = newProtectedRouter(student, RequireCapability(models.CapabilityReviewNOC))
	assert.Equal(t, http.StatusForbidden, performRequest(router, "Bearer good").Code)
}

func TestRequireRoles(t *testing.T) {
	admin := &stubValidator{claims: &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}}
	router := newProtectedRouter(admin, RequireRoles(models.RoleAdmin, models.RolePlacementOfficer))
	assert.Equal(t, http.StatusOK, performRequest(router, "Bearer good").Code)

	faculty := &stubValidator{claims: &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}}
	router = newProtectedRouter(faculty, RequireRoles(models.RoleAdmin, models.RolePlacementOfficer))
	assert.Equal(t, http.StatusForbidden, performRequest(router, "Bearer good").Code)
}
