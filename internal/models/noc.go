package models

import "time"

// NOCStatus captures workflow states for no-objection certificate requests.
type NOCStatus string

const (
	NOCStatusPending  NOCStatus = "PENDING"
	NOCStatusApproved NOCStatus = "APPROVED"
	NOCStatusRejected NOCStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s NOCStatus) Terminal() bool {
	return s == NOCStatusApproved || s == NOCStatusRejected
}

// ReviewDecision restricts the accepted reviewer outcomes.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

// NOCRequest stores a student's request to undertake an external
// internship. Once the status leaves PENDING the row is immutable except
// for the certificate reference attached on approval.
type NOCRequest struct {
	ID              string     `db:"id" json:"id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	Company         string     `db:"company" json:"company"`
	Position        string     `db:"position" json:"position"`
	Duration        string     `db:"duration" json:"duration"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	Description     string     `db:"description" json:"description"`
	Documents       []byte     `db:"documents" json:"documents,omitempty"`
	CompanyVerified bool       `db:"company_verified" json:"company_verified"`
	Status          NOCStatus  `db:"status" json:"status"`
	SubmittedAt     time.Time  `db:"submitted_at" json:"submitted_at"`
	ReviewedBy      *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Feedback        *string    `db:"feedback" json:"feedback,omitempty"`
	CertificateID   *string    `db:"certificate_id" json:"certificate_id,omitempty"`
}

// NOCStatusCounts aggregates requests per status for dashboards.
type NOCStatusCounts struct {
	Pending     int       `json:"pending"`
	Approved    int       `json:"approved"`
	Rejected    int       `json:"rejected"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}
