package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/dto"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/storage"
)

type certificateStore interface {
	Insert(ctx context.Context, cert *models.Certificate) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*models.Certificate, error)
}

type certificateRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.NOCRequest, error)
	AttachCertificate(ctx context.Context, requestID, certificateID string) error
}

type certificateUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type numberProvider interface {
	NextNumber(ctx context.Context, issuanceDate time.Time) (string, error)
}

type certificateRenderer interface {
	Render(cert *models.Certificate) ([]byte, error)
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Exists(filename string) bool
}

type issuanceCounter interface {
	IncCertificatesIssued()
}

// CertificateDownloadFile aggregates resolved download data.
type CertificateDownloadFile struct {
	File     *os.File
	Filename string
}

// CertificateService issues certificates for approved requests and
// renders them into fixed-layout PDF documents. Issuance is idempotent
// by request id: exactly one certificate ever exists per approved
// request and re-issuing returns the same number.
type CertificateService struct {
	certs     certificateStore
	requests  certificateRequestStore
	users     certificateUserStore
	numbering numberProvider
	renderer  certificateRenderer
	store     artifactStore
	signer    *storage.SignedURLSigner
	audit     auditLogger
	metrics   issuanceCounter
	logger    *zap.Logger
}

// NewCertificateService constructs the service.
func NewCertificateService(
	certs certificateStore,
	requests certificateRequestStore,
	users certificateUserStore,
	numbering numberProvider,
	renderer certificateRenderer,
	store artifactStore,
	signer *storage.SignedURLSigner,
	audit auditLogger,
	metrics issuanceCounter,
	logger *zap.Logger,
) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certs:     certs,
		requests:  requests,
		users:     users,
		numbering: numbering,
		renderer:  renderer,
		store:     store,
		signer:    signer,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}
}

// IssueForRequest creates the certificate for an approved request, or
// returns the existing one. Safe to call repeatedly and concurrently:
// the append-only insert keyed by request id resolves duplicate mints to
// a single winner.
func (s *CertificateService) IssueForRequest(ctx context.Context, requestID, actorID string) (*models.Certificate, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load noc request")
	}
	if request.Status != models.NOCStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "certificates are only issued for approved requests")
	}

	existing, err := s.certs.GetByRequestID(ctx, requestID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}

	student, err := s.users.FindByID(ctx, request.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	issuedAt := time.Now().UTC()
	number, err := s.numbering.NextNumber(ctx, issuedAt)
	if err != nil {
		return nil, err
	}

	approvedBy := actorID
	approvedAt := issuedAt
	if request.ReviewedBy != nil {
		approvedBy = *request.ReviewedBy
	}
	if request.ReviewedAt != nil {
		approvedAt = *request.ReviewedAt
	}

	cert := &models.Certificate{
		RequestID:   request.ID,
		Number:      number,
		StudentID:   student.ID,
		StudentName: student.FullName,
		Department:  derefOr(student.Department, "General"),
		RollNumber:  derefOr(student.RollNumber, "-"),
		Company:     request.Company,
		Position:    request.Position,
		Duration:    request.Duration,
		StartDate:   request.StartDate,
		ApprovedBy:  approvedBy,
		ApprovedAt:  approvedAt,
		IssuedAt:    issuedAt,
	}

	inserted, err := s.certs.Insert(ctx, cert)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist certificate")
	}
	if !inserted {
		// Concurrent issuance won; return its certificate. The number
		// minted above stays unused, which is acceptable: numbers are
		// unique, not dense.
		winner, loadErr := s.certs.GetByRequestID(ctx, requestID)
		if loadErr != nil {
			return nil, appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load concurrent certificate")
		}
		return winner, nil
	}

	if err := s.requests.AttachCertificate(ctx, request.ID, cert.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to attach certificate reference", zap.String("request_id", request.ID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.IncCertificatesIssued()
	}
	s.emitIssueAudit(ctx, actorID, cert)
	return cert, nil
}

// Render produces the PDF for a certificate and caches the artifact on
// disk for signed-URL downloads.
func (s *CertificateService) Render(ctx context.Context, certificateID string) ([]byte, *models.Certificate, error) {
	cert, err := s.certs.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	data, err := s.renderer.Render(cert)
	if err != nil {
		// A render failure on a persisted certificate is a programming
		// contract violation, not a retryable condition.
		s.logger.Error("certificate render failed", zap.String("certificate_id", cert.ID), zap.Error(err))
		return nil, nil, err
	}
	if s.store != nil {
		if _, saveErr := s.store.Save(artifactName(cert.ID), data); saveErr != nil {
			s.logger.Warn("failed to cache rendered certificate", zap.String("certificate_id", cert.ID), zap.Error(saveErr))
		}
	}
	return data, cert, nil
}

// DownloadLink returns a signed, expiring download reference.
func (s *CertificateService) DownloadLink(ctx context.Context, certificateID string) (*dto.CertificateDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signing not configured")
	}
	cert, err := s.certs.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	token, expiresAt, err := s.signer.Generate(cert.ID, artifactName(cert.ID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.CertificateDownload{
		CertificateID: cert.ID,
		Number:        cert.Number,
		DownloadURL:   fmt.Sprintf("/certificates/download/%s", token),
		ExpiresAt:     expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and opens the stored artifact,
// re-rendering it if the cached file is gone.
func (s *CertificateService) ResolveDownload(ctx context.Context, token string) (*CertificateDownloadFile, error) {
	if s.signer == nil || s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download not configured")
	}
	certificateID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if !s.store.Exists(relPath) {
		if _, _, renderErr := s.Render(ctx, certificateID); renderErr != nil {
			return nil, renderErr
		}
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate artifact")
	}
	return &CertificateDownloadFile{File: file, Filename: fmt.Sprintf("noc-%s.pdf", certificateID)}, nil
}

// Verify performs the public lookup behind the verification contact
// printed on every certificate.
func (s *CertificateService) Verify(ctx context.Context, rawNumber string) (*dto.CertificateVerification, error) {
	parsed, err := models.ParseCertificateNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	cert, err := s.certs.GetByNumber(ctx, rawNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.CertificateVerification{Valid: false, Number: parsed}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up certificate")
	}
	issuedAt := cert.IssuedAt
	return &dto.CertificateVerification{
		Valid:       true,
		Number:      parsed,
		StudentName: cert.StudentName,
		Company:     cert.Company,
		IssuedAt:    &issuedAt,
	}, nil
}

func (s *CertificateService) emitIssueAudit(ctx context.Context, actorID string, cert *models.Certificate) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionCertificateIssue,
		Resource:   "certificate",
		ResourceID: &cert.ID,
		NewValues:  mustJSON(map[string]string{"number": cert.Number, "request_id": cert.RequestID}),
		IPAddress:  "system",
		UserAgent:  "certificate-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist issuance audit log", zap.Error(err))
	}
}

func artifactName(certificateID string) string {
	return fmt.Sprintf("noc/%s.pdf", certificateID)
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
