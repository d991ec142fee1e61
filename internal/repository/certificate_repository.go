package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

const certificateColumns = `id, request_id, number, student_id, student_name, department, roll_number,
       company, position, duration, start_date, approved_by, approved_at, issued_at`

// CertificateRepository persists issued certificates. Rows are
// append-only; no update path exists.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Insert stores a certificate. The unique constraint on request_id makes
// issuance idempotent: a concurrent duplicate insert affects zero rows
// and the caller re-reads the winner. Returns whether the row was
// actually written.
func (r *CertificateRepository) Insert(ctx context.Context, cert *models.Certificate) (bool, error) {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates
	(id, request_id, number, student_id, student_name, department, roll_number, company, position, duration, start_date, approved_by, approved_at, issued_at)
	VALUES (:id, :request_id, :number, :student_id, :student_name, :department, :roll_number, :company, :position, :duration, :start_date, :approved_by, :approved_at, :issued_at)
	ON CONFLICT (request_id) DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, cert)
	if err != nil {
		return false, fmt.Errorf("insert certificate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check certificate insert rows: %w", err)
	}
	return rows > 0, nil
}

// GetByID fetches a certificate by identifier.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE id = $1`, certificateColumns)
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		return nil, err
	}
	return &cert, nil
}

// GetByRequestID fetches the certificate derived from a request.
func (r *CertificateRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE request_id = $1`, certificateColumns)
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, requestID); err != nil {
		return nil, err
	}
	return &cert, nil
}

// GetByNumber fetches a certificate by its public number.
func (r *CertificateRepository) GetByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE number = $1`, certificateColumns)
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, number); err != nil {
		return nil, err
	}
	return &cert, nil
}
