package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/dto"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/repository"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

type nocStore interface {
	Create(ctx context.Context, request *models.NOCRequest) error
	GetByID(ctx context.Context, id string) (*models.NOCRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.NOCRequest, error)
	ListPendingOldestFirst(ctx context.Context) ([]models.NOCRequest, error)
	ListAll(ctx context.Context) ([]models.NOCRequest, error)
	Review(ctx context.Context, params repository.ReviewParams) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type certificateIssuer interface {
	IssueForRequest(ctx context.Context, requestID, actorID string) (*models.Certificate, error)
}

type eventDispatcher interface {
	Dispatch(event models.DomainEvent)
}

type conflictCounter interface {
	IncReviewConflict()
}

// durations accepted by submission validation, e.g. "3 months", "12 weeks".
var durationPattern = regexp.MustCompile(`^([1-9][0-9]*)\s*(day|week|month|year)s?$`)

// NOCService owns the request state machine: PENDING transitions once to
// APPROVED or REJECTED and never leaves a terminal state.
type NOCService struct {
	repo      nocStore
	audit     auditLogger
	certs     certificateIssuer
	events    eventDispatcher
	metrics   conflictCounter
	validator *validator.Validate
	logger    *zap.Logger
	opTimeout time.Duration
}

// NOCServiceOption configures the service.
type NOCServiceOption func(*NOCService)

// WithCertificateIssuer wires the issuance collaborator invoked on approval.
func WithCertificateIssuer(issuer certificateIssuer) NOCServiceOption {
	return func(s *NOCService) {
		s.certs = issuer
	}
}

// WithEventDispatcher wires the domain-event relay.
func WithEventDispatcher(dispatcher eventDispatcher) NOCServiceOption {
	return func(s *NOCService) {
		s.events = dispatcher
	}
}

// WithConflictCounter wires the double-review conflict metric.
func WithConflictCounter(counter conflictCounter) NOCServiceOption {
	return func(s *NOCService) {
		s.metrics = counter
	}
}

// WithOperationTimeout bounds repository I/O per engine call.
func WithOperationTimeout(timeout time.Duration) NOCServiceOption {
	return func(s *NOCService) {
		if timeout > 0 {
			s.opTimeout = timeout
		}
	}
}

// NewNOCService constructs the service with defaults.
func NewNOCService(repo nocStore, audit auditLogger, logger *zap.Logger, opts ...NOCServiceOption) *NOCService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NOCService{
		repo:      repo,
		audit:     audit,
		validator: validator.New(),
		logger:    logger,
		opTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit stores a new request in PENDING after validating the payload.
func (s *NOCService) Submit(ctx context.Context, req dto.CreateNOCRequest, studentID string) (*models.NOCRequest, error) {
	if studentID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "company, position, duration, start_date, and description are required")
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be a valid YYYY-MM-DD date")
	}
	if !durationPattern.MatchString(strings.ToLower(strings.TrimSpace(req.Duration))) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be a positive span such as '3 months'")
	}

	var documents []byte
	if len(req.Documents) > 0 {
		documents, err = json.Marshal(req.Documents)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "documents must be a list of references")
		}
	}

	request := &models.NOCRequest{
		StudentID:   studentID,
		Company:     strings.TrimSpace(req.Company),
		Position:    strings.TrimSpace(req.Position),
		Duration:    strings.TrimSpace(req.Duration),
		StartDate:   startDate,
		Description: strings.TrimSpace(req.Description),
		Documents:   documents,
		Status:      models.NOCStatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.repo.Create(opCtx, request); err != nil {
		return nil, s.mapStoreError(err, "failed to create noc request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionNOCSubmit,
		Resource:   "noc_request",
		ResourceID: &request.ID,
		NewValues:  mustJSON(map[string]string{"company": request.Company, "position": request.Position}),
	})
	return request, nil
}

// Review applies a reviewer decision exactly once. Requires the
// noc:review capability; the conditional update in the repository
// guarantees at most one decision is durably recorded per request.
func (s *NOCService) Review(ctx context.Context, id string, req dto.ReviewNOCRequest, actor *models.JWTClaims) (*models.NOCRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.HasCapability(models.CapabilityReviewNOC) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewer capability required")
	}
	if req.Decision != models.DecisionApproved && req.Decision != models.DecisionRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	request, err := s.repo.GetByID(opCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.mapStoreError(err, "failed to load noc request")
	}
	if request.Status.Terminal() {
		s.countConflict()
		return nil, alreadyDecided(request)
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		ID:         request.ID,
		Status:     models.NOCStatus(req.Decision),
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
		Feedback:   optionalString(req.Feedback),
	}
	if err := s.repo.Review(opCtx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: another reviewer decided first. Refresh so
			// the caller learns who decided and when.
			s.countConflict()
			if current, loadErr := s.repo.GetByID(opCtx, id); loadErr == nil {
				return nil, alreadyDecided(current)
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "request already decided")
		}
		return nil, s.mapStoreError(err, "failed to record review decision")
	}

	request.Status = params.Status
	request.ReviewedBy = &params.ReviewedBy
	request.ReviewedAt = &now
	request.Feedback = params.Feedback

	if req.Decision == models.DecisionApproved && s.certs != nil {
		cert, issueErr := s.certs.IssueForRequest(ctx, request.ID, actor.UserID)
		if issueErr != nil {
			// The decision is durable; issuance is idempotent and can be
			// repaired via the issue endpoint.
			s.logger.Error("certificate issuance failed after approval", zap.String("request_id", request.ID), zap.Error(issueErr))
			return nil, appErrors.Wrap(issueErr, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "request approved but certificate issuance failed, retry issuance")
		}
		request.CertificateID = &cert.ID
	}

	s.dispatchEvent(request, actor.UserID, now)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionNOCReview,
		Resource:   "noc_request",
		ResourceID: &request.ID,
		NewValues:  mustJSON(map[string]string{"decision": string(req.Decision)}),
	})
	return request, nil
}

// Get returns a request to its owner, its reviewer, or a reader with the
// noc:read-all capability.
func (s *NOCService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.NOCRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	request, err := s.repo.GetByID(opCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.mapStoreError(err, "failed to load noc request")
	}
	if request.StudentID == actor.UserID {
		return request, nil
	}
	if request.ReviewedBy != nil && *request.ReviewedBy == actor.UserID {
		return request, nil
	}
	if actor.HasCapability(models.CapabilityReadAllNOC) {
		return request, nil
	}
	return nil, appErrors.ErrForbidden
}

// ListForStudent returns a student's requests, most recent first.
func (s *NOCService) ListForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.NOCRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.UserID != studentID && !actor.HasCapability(models.CapabilityReadAllNOC) {
		return nil, appErrors.ErrForbidden
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	requests, err := s.repo.ListByStudent(opCtx, studentID)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to list noc requests")
	}
	return requests, nil
}

// ListPendingForReview returns the pending queue oldest-first so the
// longest-waiting request is reviewed next.
func (s *NOCService) ListPendingForReview(ctx context.Context, actor *models.JWTClaims) ([]models.NOCRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.HasCapability(models.CapabilityReviewNOC) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewer capability required")
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	requests, err := s.repo.ListPendingOldestFirst(opCtx)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to list pending noc requests")
	}
	return requests, nil
}

// ListAll returns every request for export. Requires the data:export
// capability.
func (s *NOCService) ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.NOCRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.HasCapability(models.CapabilityExportData) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export capability required")
	}
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	requests, err := s.repo.ListAll(opCtx)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to list noc requests")
	}
	return requests, nil
}

func (s *NOCService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// mapStoreError distinguishes deadline expiry (safe to retry) from other
// repository failures.
func (s *NOCService) mapStoreError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *NOCService) countConflict() {
	if s.metrics != nil {
		s.metrics.IncReviewConflict()
	}
}

func (s *NOCService) dispatchEvent(request *models.NOCRequest, reviewerID string, at time.Time) {
	if s.events == nil {
		return
	}
	eventType := models.EventRequestRejected
	if request.Status == models.NOCStatusApproved {
		eventType = models.EventRequestApproved
	}
	s.events.Dispatch(models.DomainEvent{
		Type:       eventType,
		RequestID:  request.ID,
		StudentID:  request.StudentID,
		ReviewerID: reviewerID,
		OccurredAt: at,
	})
}

func (s *NOCService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "noc-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func alreadyDecided(request *models.NOCRequest) error {
	msg := "request already decided"
	if request.ReviewedBy != nil && request.ReviewedAt != nil {
		msg = fmt.Sprintf("request already %s by %s at %s",
			strings.ToLower(string(request.Status)), *request.ReviewedBy, request.ReviewedAt.Format(time.RFC3339))
	}
	return appErrors.Clone(appErrors.ErrInvalidState, msg)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mustJSON(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return payload
}
