package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/dto"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/repository"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

// memNOCStore is an in-memory nocStore. Review mirrors the conditional
// update semantics of the SQL repository: only a PENDING row is written
// and a losing writer observes sql.ErrNoRows.
type memNOCStore struct {
	mu       sync.Mutex
	requests map[string]*models.NOCRequest
	failWith error
}

func newMemNOCStore() *memNOCStore {
	return &memNOCStore{requests: make(map[string]*models.NOCRequest)}
}

func (s *memNOCStore) Create(_ context.Context, request *models.NOCRequest) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if request.ID == "" {
		request.ID = fmt.Sprintf("req-%d", len(s.requests)+1)
	}
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

func (s *memNOCStore) GetByID(_ context.Context, id string) (*models.NOCRequest, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (s *memNOCStore) ListByStudent(_ context.Context, studentID string) ([]models.NOCRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.NOCRequest
	for _, request := range s.requests {
		if request.StudentID == studentID {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (s *memNOCStore) ListPendingOldestFirst(_ context.Context) ([]models.NOCRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.NOCRequest
	for _, request := range s.requests {
		if request.Status == models.NOCStatusPending {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (s *memNOCStore) ListAll(_ context.Context) ([]models.NOCRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.NOCRequest
	for _, request := range s.requests {
		result = append(result, *request)
	}
	return result, nil
}

func (s *memNOCStore) Review(_ context.Context, params repository.ReviewParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[params.ID]
	if !ok || request.Status != models.NOCStatusPending {
		return sql.ErrNoRows
	}
	request.Status = params.Status
	reviewedBy := params.ReviewedBy
	reviewedAt := params.ReviewedAt
	request.ReviewedBy = &reviewedBy
	request.ReviewedAt = &reviewedAt
	request.Feedback = params.Feedback
	return nil
}

type memAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (a *memAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, *log)
	return nil
}

type stubIssuer struct {
	mu     sync.Mutex
	calls  int
	cert   *models.Certificate
	err    error
	lastID string
}

func (i *stubIssuer) IssueForRequest(_ context.Context, requestID, _ string) (*models.Certificate, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	i.lastID = requestID
	if i.err != nil {
		return nil, i.err
	}
	if i.cert != nil {
		return i.cert, nil
	}
	return &models.Certificate{ID: "cert-1", RequestID: requestID, Number: "TCET/NOC/2026/0305/001"}, nil
}

type memDispatcher struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func (d *memDispatcher) Dispatch(event models.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func claimsFor(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func validSubmission() dto.CreateNOCRequest {
	return dto.CreateNOCRequest{
		Company:     "Acme Corp",
		Position:    "Backend Intern",
		Duration:    "3 months",
		StartDate:   "2026-01-15",
		Description: "Summer internship at Acme",
	}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	store := newMemNOCStore()
	audit := &memAudit{}
	svc := NewNOCService(store, audit, zap.NewNop())

	request, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.NOCStatusPending, request.Status)
	assert.Equal(t, "student-1", request.StudentID)
	assert.Nil(t, request.ReviewedBy)
	assert.False(t, request.SubmittedAt.IsZero())
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionNOCSubmit, audit.logs[0].Action)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	cases := map[string]func(*dto.CreateNOCRequest){
		"missing company":     func(r *dto.CreateNOCRequest) { r.Company = "" },
		"missing position":    func(r *dto.CreateNOCRequest) { r.Position = "" },
		"missing description": func(r *dto.CreateNOCRequest) { r.Description = "" },
		"bad start date":      func(r *dto.CreateNOCRequest) { r.StartDate = "15-01-2026" },
		"negative duration":   func(r *dto.CreateNOCRequest) { r.Duration = "-3 months" },
		"zero duration":       func(r *dto.CreateNOCRequest) { r.Duration = "0 months" },
		"unitless duration":   func(r *dto.CreateNOCRequest) { r.Duration = "ninety days or so" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validSubmission()
			mutate(&req)
			_, err := svc.Submit(context.Background(), req, "student-1")
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestSubmitAcceptsDurationVariants(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	for _, duration := range []string{"1 day", "12 weeks", "3 months", "1 year", "6months"} {
		req := validSubmission()
		req.Duration = duration
		_, err := svc.Submit(context.Background(), req, "student-1")
		assert.NoError(t, err, duration)
	}
}

func TestReviewApproveIssuesCertificate(t *testing.T) {
	store := newMemNOCStore()
	audit := &memAudit{}
	issuer := &stubIssuer{}
	dispatcher := &memDispatcher{}
	svc := NewNOCService(store, audit, zap.NewNop(),
		WithCertificateIssuer(issuer),
		WithEventDispatcher(dispatcher),
	)

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionApproved}, claimsFor("officer-1", models.RolePlacementOfficer))
	require.NoError(t, err)

	assert.Equal(t, models.NOCStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "officer-1", *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.CertificateID)
	assert.Equal(t, "cert-1", *reviewed.CertificateID)
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, submitted.ID, issuer.lastID)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, models.EventRequestApproved, dispatcher.events[0].Type)
	assert.Equal(t, "student-1", dispatcher.events[0].StudentID)
}

func TestReviewRejectSkipsIssuance(t *testing.T) {
	store := newMemNOCStore()
	issuer := &stubIssuer{}
	dispatcher := &memDispatcher{}
	svc := NewNOCService(store, nil, zap.NewNop(),
		WithCertificateIssuer(issuer),
		WithEventDispatcher(dispatcher),
	)

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	feedback := "company could not be verified"
	reviewed, err := svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionRejected, Feedback: feedback}, claimsFor("faculty-1", models.RoleFaculty))
	require.NoError(t, err)

	assert.Equal(t, models.NOCStatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.Feedback)
	assert.Equal(t, feedback, *reviewed.Feedback)
	assert.Nil(t, reviewed.CertificateID)
	assert.Equal(t, 0, issuer.calls)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, models.EventRequestRejected, dispatcher.events[0].Type)
}

func TestReviewRequiresCapability(t *testing.T) {
	store := newMemNOCStore()
	svc := NewNOCService(store, nil, zap.NewNop())

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionApproved}, claimsFor("student-1", models.RoleStudent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewRejectsInvalidDecision(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewNOCRequest{Decision: "MAYBE"}, claimsFor("officer-1", models.RolePlacementOfficer))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewUnknownRequest(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	_, err := svc.Review(context.Background(), "missing", dto.ReviewNOCRequest{Decision: models.DecisionApproved}, claimsFor("officer-1", models.RolePlacementOfficer))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReviewSecondDecisionConflicts(t *testing.T) {
	store := newMemNOCStore()
	svc := NewNOCService(store, nil, zap.NewNop())

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionApproved}, claimsFor("officer-1", models.RolePlacementOfficer))
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionRejected}, claimsFor("faculty-1", models.RoleFaculty))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	// The conflict names the winning reviewer and decision time.
	assert.Contains(t, appErr.Message, "approved")
	assert.Contains(t, appErr.Message, "officer-1")
}

func TestReviewConcurrentDecisionsOneWinner(t *testing.T) {
	store := newMemNOCStore()
	svc := NewNOCService(store, nil, zap.NewNop())

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	decisions := []models.ReviewDecision{models.DecisionApproved, models.DecisionRejected}
	reviewers := []string{"officer-1", "faculty-1"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: decisions[i]}, claimsFor(reviewers[i], models.RolePlacementOfficer))
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	final, err := store.GetByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.Terminal())
	require.NotNil(t, final.ReviewedBy)
}

func TestReviewIssuanceFailureIsTransient(t *testing.T) {
	store := newMemNOCStore()
	issuer := &stubIssuer{err: errors.New("counter unavailable")}
	svc := NewNOCService(store, nil, zap.NewNop(), WithCertificateIssuer(issuer))

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewNOCRequest{Decision: models.DecisionApproved}, claimsFor("officer-1", models.RolePlacementOfficer))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransient.Code, appErrors.FromError(err).Code)

	// The decision itself is durable; only issuance needs repair.
	final, err := store.GetByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NOCStatusApproved, final.Status)
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := newMemNOCStore()
	svc := NewNOCService(store, nil, zap.NewNop())

	submitted, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), submitted.ID, claimsFor("student-1", models.RoleStudent))
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), submitted.ID, claimsFor("student-2", models.RoleStudent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), submitted.ID, claimsFor("faculty-1", models.RoleFaculty))
	assert.NoError(t, err)
}

func TestListForStudentForbidsOtherStudents(t *testing.T) {
	store := newMemNOCStore()
	svc := NewNOCService(store, nil, zap.NewNop())

	_, err := svc.ListForStudent(context.Background(), "student-1", claimsFor("student-2", models.RoleStudent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.ListForStudent(context.Background(), "student-1", claimsFor("officer-1", models.RolePlacementOfficer))
	assert.NoError(t, err)
}

func TestListPendingRequiresReviewCapability(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	_, err := svc.ListPendingForReview(context.Background(), claimsFor("student-1", models.RoleStudent))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListAllRequiresExportCapability(t *testing.T) {
	svc := NewNOCService(newMemNOCStore(), nil, zap.NewNop())

	_, err := svc.ListAll(context.Background(), claimsFor("faculty-1", models.RoleFaculty))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.ListAll(context.Background(), claimsFor("admin-1", models.RoleAdmin))
	assert.NoError(t, err)
}

func TestSubmitTimeoutSurfacesAsTimeout(t *testing.T) {
	store := newMemNOCStore()
	store.failWith = context.DeadlineExceeded
	svc := NewNOCService(store, nil, zap.NewNop(), WithOperationTimeout(time.Millisecond))

	_, err := svc.Submit(context.Background(), validSubmission(), "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimeout.Code, appErrors.FromError(err).Code)
}
