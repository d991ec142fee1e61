package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

func certificateFixture() *models.Certificate {
	return &models.Certificate{
		ID:          "cert-1",
		RequestID:   "req-1",
		Number:      "TCET/NOC/2026/0305/001",
		StudentID:   "student-1",
		StudentName: "Jordan Patel",
		Department:  "Information Technology",
		RollNumber:  "19104001",
		Company:     "Acme Corp",
		Position:    "Backend Intern",
		Duration:    "3 months",
		StartDate:   time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		ApprovedBy:  "officer-1",
		ApprovedAt:  time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
		IssuedAt:    time.Date(2026, time.March, 5, 10, 0, 1, 0, time.UTC),
	}
}

func newFixedClockRenderer() *CertificatePDF {
	r := NewCertificatePDF("Thakur College of Engineering and Technology", "Kandivali East, Mumbai 400101", "placement@tcetmumbai.in")
	r.Now = func() time.Time {
		return time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func TestRenderProducesPDF(t *testing.T) {
	r := newFixedClockRenderer()

	data, err := r.Render(certificateFixture())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderIsDeterministicUnderFixedClock(t *testing.T) {
	r := newFixedClockRenderer()
	cert := certificateFixture()

	first, err := r.Render(cert)
	require.NoError(t, err)
	second, err := r.Render(cert)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderRejectsIncompleteSnapshot(t *testing.T) {
	r := newFixedClockRenderer()

	cases := map[string]func(*models.Certificate){
		"nil certificate":    nil,
		"missing number":     func(c *models.Certificate) { c.Number = "" },
		"missing name":       func(c *models.Certificate) { c.StudentName = "" },
		"missing company":    func(c *models.Certificate) { c.Company = "" },
		"missing start date": func(c *models.Certificate) { c.StartDate = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			var cert *models.Certificate
			if mutate != nil {
				cert = certificateFixture()
				mutate(cert)
			}
			_, err := r.Render(cert)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrRender.Code, appErrors.FromError(err).Code)
		})
	}
}
