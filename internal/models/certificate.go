package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

// Certificate is the immutable artifact issued when a request is
// approved. It snapshots the request payload at approval time; rows are
// append-only and exactly one exists per approved request.
type Certificate struct {
	ID          string    `db:"id" json:"id"`
	RequestID   string    `db:"request_id" json:"request_id"`
	Number      string    `db:"number" json:"number"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Department  string    `db:"department" json:"department"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	Company     string    `db:"company" json:"company"`
	Position    string    `db:"position" json:"position"`
	Duration    string    `db:"duration" json:"duration"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	ApprovedBy  string    `db:"approved_by" json:"approved_by"`
	ApprovedAt  time.Time `db:"approved_at" json:"approved_at"`
	IssuedAt    time.Time `db:"issued_at" json:"issued_at"`
}

// CertificateNumber holds the parsed components of a certificate number.
type CertificateNumber struct {
	Org      string `json:"org"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Day      int    `json:"day"`
	Sequence int    `json:"sequence"`
}

// FormatCertificateNumber renders the canonical {ORG}/NOC/{YYYY}/{MMDD}/{SEQ}
// form. The sequence is zero-padded to 3 digits and widens past 999.
func FormatCertificateNumber(org string, issued time.Time, seq int) string {
	return fmt.Sprintf("%s/NOC/%04d/%02d%02d/%03d", org, issued.Year(), int(issued.Month()), issued.Day(), seq)
}

// ParseCertificateNumber validates and decomposes a certificate number.
func ParseCertificateNumber(raw string) (*CertificateNumber, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 5 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "certificate number must have 5 segments")
	}
	org, kind, yearRaw, dateRaw, seqRaw := parts[0], parts[1], parts[2], parts[3], parts[4]
	if org == "" {
		return nil, appErrors.Clone(appErrors.ErrFormat, "organization segment is empty")
	}
	if kind != "NOC" {
		return nil, appErrors.Clone(appErrors.ErrFormat, "certificate type segment must be NOC")
	}
	if len(yearRaw) != 4 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "year segment must be 4 digits")
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrFormat, "year segment is not numeric")
	}
	if len(dateRaw) != 4 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "date segment must be MMDD")
	}
	month, err := strconv.Atoi(dateRaw[:2])
	if err != nil || month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "month out of range")
	}
	day, err := strconv.Atoi(dateRaw[2:])
	if err != nil || day < 1 || day > 31 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "day out of range")
	}
	if len(seqRaw) < 3 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "sequence segment must be at least 3 digits")
	}
	seq, err := strconv.Atoi(seqRaw)
	if err != nil || seq < 1 {
		return nil, appErrors.Clone(appErrors.ErrFormat, "sequence segment is not a positive number")
	}
	// Reject impossible calendar dates such as 0231.
	normalized := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if normalized.Month() != time.Month(month) || normalized.Day() != day {
		return nil, appErrors.Clone(appErrors.ErrFormat, "date segment is not a valid calendar date")
	}
	return &CertificateNumber{Org: org, Year: year, Month: month, Day: day, Sequence: seq}, nil
}
