package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

func TestFormatCertificateNumber(t *testing.T) {
	issued := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "TCET/NOC/2026/0305/001", FormatCertificateNumber("TCET", issued, 1))
	assert.Equal(t, "TCET/NOC/2026/0305/042", FormatCertificateNumber("TCET", issued, 42))
	assert.Equal(t, "TCET/NOC/2026/0305/999", FormatCertificateNumber("TCET", issued, 999))
}

func TestFormatCertificateNumberWidensPast999(t *testing.T) {
	issued := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "TCET/NOC/2026/1231/1000", FormatCertificateNumber("TCET", issued, 1000))
	assert.Equal(t, "TCET/NOC/2026/1231/12345", FormatCertificateNumber("TCET", issued, 12345))
}

func TestParseCertificateNumberRoundTrip(t *testing.T) {
	issued := time.Date(2026, time.July, 9, 0, 0, 0, 0, time.UTC)
	for _, seq := range []int{1, 73, 999, 1000, 4821} {
		number := FormatCertificateNumber("TCET", issued, seq)
		parsed, err := ParseCertificateNumber(number)
		require.NoError(t, err, number)
		assert.Equal(t, "TCET", parsed.Org)
		assert.Equal(t, 2026, parsed.Year)
		assert.Equal(t, 7, parsed.Month)
		assert.Equal(t, 9, parsed.Day)
		assert.Equal(t, seq, parsed.Sequence)
	}
}

func TestParseCertificateNumberRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"too few segments":     "TCET/NOC/2026/0305",
		"too many segments":    "TCET/NOC/2026/0305/001/extra",
		"empty org":            "/NOC/2026/0305/001",
		"wrong type":           "TCET/GRN/2026/0305/001",
		"short year":           "TCET/NOC/26/0305/001",
		"non numeric year":     "TCET/NOC/20XX/0305/001",
		"short date":           "TCET/NOC/2026/305/001",
		"month out of range":   "TCET/NOC/2026/1305/001",
		"day out of range":     "TCET/NOC/2026/0332/001",
		"impossible date":      "TCET/NOC/2026/0231/001",
		"short sequence":       "TCET/NOC/2026/0305/01",
		"zero sequence":        "TCET/NOC/2026/0305/000",
		"non numeric sequence": "TCET/NOC/2026/0305/0x1",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseCertificateNumber(raw)
			require.Error(t, err)
			assert.Nil(t, parsed)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrFormat.Code, appErr.Code)
		})
	}
}

func TestNOCStatusTerminal(t *testing.T) {
	assert.False(t, NOCStatusPending.Terminal())
	assert.True(t, NOCStatusApproved.Terminal())
	assert.True(t, NOCStatusRejected.Terminal())
}

func TestHasCapability(t *testing.T) {
	assert.True(t, HasCapability(RoleAdmin, CapabilityReviewNOC))
	assert.True(t, HasCapability(RolePlacementOfficer, CapabilityIssueCertificate))
	assert.True(t, HasCapability(RoleFaculty, CapabilityReviewNOC))
	assert.False(t, HasCapability(RoleFaculty, CapabilityIssueCertificate))
	assert.False(t, HasCapability(RoleStudent, CapabilityReviewNOC))
	assert.False(t, HasCapability(UserRole("UNKNOWN"), CapabilityReadAllNOC))
}
