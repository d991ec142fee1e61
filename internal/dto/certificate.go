package dto

import (
	"time"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

// CertificateDownload references a signed download link for a rendered
// certificate.
type CertificateDownload struct {
	CertificateID string    `json:"certificate_id"`
	Number        string    `json:"number"`
	DownloadURL   string    `json:"download_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// CertificateVerification is the public lookup result for a certificate
// number.
type CertificateVerification struct {
	Valid       bool                      `json:"valid"`
	Number      *models.CertificateNumber `json:"number,omitempty"`
	StudentName string                    `json:"student_name,omitempty"`
	Company     string                    `json:"company,omitempty"`
	IssuedAt    *time.Time                `json:"issued_at,omitempty"`
}
