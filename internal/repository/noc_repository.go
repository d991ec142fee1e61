package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

const nocColumns = `id, student_id, company, position, duration, start_date, description, documents,
       company_verified, status, submitted_at, reviewed_by, reviewed_at, feedback, certificate_id`

// NOCRepository persists request workflow data.
type NOCRepository struct {
	db *sqlx.DB
}

// NewNOCRepository constructs the repository.
func NewNOCRepository(db *sqlx.DB) *NOCRepository {
	return &NOCRepository{db: db}
}

// Create inserts a new request row.
func (r *NOCRepository) Create(ctx context.Context, request *models.NOCRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.NOCStatusPending
	}
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO noc_requests
	(id, student_id, company, position, duration, start_date, description, documents, company_verified, status, submitted_at, reviewed_by, reviewed_at, feedback, certificate_id)
	VALUES (:id, :student_id, :company, :position, :duration, :start_date, :description, :documents, :company_verified, :status, :submitted_at, :reviewed_by, :reviewed_at, :feedback, :certificate_id)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create noc request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *NOCRepository) GetByID(ctx context.Context, id string) (*models.NOCRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM noc_requests WHERE id = $1`, nocColumns)
	var request models.NOCRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListByStudent returns all requests owned by a student, most recent first.
func (r *NOCRepository) ListByStudent(ctx context.Context, studentID string) ([]models.NOCRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM noc_requests WHERE student_id = $1 ORDER BY submitted_at DESC`, nocColumns)
	var requests []models.NOCRequest
	if err := r.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, fmt.Errorf("list noc requests for student: %w", err)
	}
	return requests, nil
}

// ListPendingOldestFirst returns the pending queue in FIFO review order.
func (r *NOCRepository) ListPendingOldestFirst(ctx context.Context) ([]models.NOCRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM noc_requests WHERE status = $1 ORDER BY submitted_at ASC`, nocColumns)
	var requests []models.NOCRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.NOCStatusPending); err != nil {
		return nil, fmt.Errorf("list pending noc requests: %w", err)
	}
	return requests, nil
}

// ListAll returns every request, most recent first. Used for exports.
func (r *NOCRepository) ListAll(ctx context.Context) ([]models.NOCRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM noc_requests ORDER BY submitted_at DESC`, nocColumns)
	var requests []models.NOCRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list noc requests: %w", err)
	}
	return requests, nil
}

// ReviewParams groups the columns written by a reviewer decision.
type ReviewParams struct {
	ID         string
	Status     models.NOCStatus
	ReviewedBy string
	ReviewedAt time.Time
	Feedback   *string
}

// Review persists the reviewer decision. The WHERE clause only matches a
// request still in PENDING, which is the race guard the whole workflow
// rests on: concurrent reviews resolve to exactly one winner and the
// loser observes sql.ErrNoRows.
func (r *NOCRepository) Review(ctx context.Context, params ReviewParams) error {
	query := fmt.Sprintf(`UPDATE noc_requests
	SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, feedback = :feedback
	WHERE id = :id AND status = '%s'`, models.NOCStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"feedback":    params.Feedback,
	})
	if err != nil {
		return fmt.Errorf("review noc request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AttachCertificate records the certificate reference on an approved
// request. Writing over an existing reference is not permitted.
func (r *NOCRepository) AttachCertificate(ctx context.Context, requestID, certificateID string) error {
	const query = `UPDATE noc_requests SET certificate_id = $1
	WHERE id = $2 AND status = $3 AND certificate_id IS NULL`
	result, err := r.db.ExecContext(ctx, query, certificateID, requestID, models.NOCStatusApproved)
	if err != nil {
		return fmt.Errorf("attach certificate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check attach rows: %w", err)
	}
	if rows == 0 {
		// Already attached (idempotent re-issue) or request not approved;
		// callers distinguish by re-reading the row.
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates request counts for dashboard display.
func (r *NOCRepository) CountByStatus(ctx context.Context) (*models.NOCStatusCounts, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE status = 'PENDING')  AS pending,
	COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
	COUNT(*) AS total
	FROM noc_requests`
	row := r.db.QueryRowxContext(ctx, query)
	counts := &models.NOCStatusCounts{GeneratedAt: time.Now().UTC()}
	if err := row.Scan(&counts.Pending, &counts.Approved, &counts.Rejected, &counts.Total); err != nil {
		return nil, fmt.Errorf("count noc requests: %w", err)
	}
	return counts, nil
}
