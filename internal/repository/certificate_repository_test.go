package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
)

func TestCertificateRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	mock.ExpectExec("INSERT INTO certificates").
		WillReturnResult(sqlmock.NewResult(1, 1))

	cert := &models.Certificate{
		RequestID:   "req-1",
		Number:      "TCET/NOC/2026/0305/001",
		StudentID:   "student-1",
		StudentName: "Jordan Patel",
		Company:     "Acme Corp",
	}
	inserted, err := repo.Insert(context.Background(), cert)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, cert.ID)
	assert.False(t, cert.IssuedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryInsertConflictLosesQuietly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	// ON CONFLICT (request_id) DO NOTHING: a concurrent issuance already
	// wrote the row, so this insert affects zero rows without erroring.
	mock.ExpectExec("INSERT INTO certificates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), &models.Certificate{
		RequestID: "req-1",
		Number:    "TCET/NOC/2026/0305/002",
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryGetByNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "request_id", "number", "student_id", "student_name", "department", "roll_number", "company", "position", "duration", "start_date", "approved_by", "approved_at", "issued_at"}).
		AddRow("cert-1", "req-1", "TCET/NOC/2026/0305/001", "student-1", "Jordan Patel", "IT", "19104001", "Acme Corp", "Intern", "3 months", now, "officer-1", now, now)
	mock.ExpectQuery("SELECT (.+) FROM certificates WHERE number = \\$1").
		WithArgs("TCET/NOC/2026/0305/001").
		WillReturnRows(rows)

	cert, err := repo.GetByNumber(context.Background(), "TCET/NOC/2026/0305/001")
	require.NoError(t, err)
	assert.Equal(t, "cert-1", cert.ID)
	assert.Equal(t, "Jordan Patel", cert.StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryNextValue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectQuery("INSERT INTO certificate_sequences").
		WithArgs("2026-03-05").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

	value, err := repo.NextValue(context.Background(), time.Date(2026, time.March, 5, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.NoError(t, mock.ExpectationsWereMet())
}
