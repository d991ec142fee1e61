package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

// CertificatePDF renders an issued certificate into the fixed NOC
// layout. Rendering is a pure function of the certificate snapshot: the
// same input yields the same content layout, with the footer generation
// timestamp as the only varying element.
type CertificatePDF struct {
	Institution         string
	Address             string
	VerificationContact string

	// Now is injectable so tests can pin the footer timestamp.
	Now func() time.Time
}

// NewCertificatePDF constructs the renderer.
func NewCertificatePDF(institution, address, verificationContact string) *CertificatePDF {
	return &CertificatePDF{
		Institution:         institution,
		Address:             address,
		VerificationContact: verificationContact,
		Now:                 time.Now,
	}
}

// Render produces the certificate document. Missing snapshot fields are
// a contract violation and fail with RENDER_ERROR.
func (r *CertificatePDF) Render(cert *models.Certificate) ([]byte, error) {
	if err := validateSnapshot(cert); err != nil {
		return nil, err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	generatedAt := now().UTC()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetMargins(20, 18, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// Header block: issuing institution.
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, r.Institution, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, r.Address, "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	// Title block: certificate number and document title.
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate No: %s", cert.Number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", cert.ApprovedAt.UTC().Format("02 January 2006")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Arial", "BU", 14)
	pdf.CellFormat(0, 10, "NO OBJECTION CERTIFICATE", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Body paragraph templating in the student identity.
	pdf.SetFont("Arial", "", 11)
	body := fmt.Sprintf(
		"This is to certify that %s (Roll No. %s), a bonafide student of the Department of %s, "+
			"has been granted permission to undertake an internship as detailed below. "+
			"The institution has no objection to the student undertaking this internship, "+
			"provided academic requirements continue to be met.",
		cert.StudentName, cert.RollNumber, cert.Department,
	)
	pdf.MultiCell(0, 6, body, "", "J", false)
	pdf.Ln(6)

	// Highlighted internship details block.
	pdf.SetFillColor(238, 238, 238)
	pdf.SetFont("Arial", "B", 10)
	details := [][2]string{
		{"Company", cert.Company},
		{"Position", cert.Position},
		{"Duration", cert.Duration},
		{"Start Date", cert.StartDate.UTC().Format("02 January 2006")},
	}
	for _, row := range details {
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(125, 8, row[1], "1", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
	}
	pdf.Ln(18)

	// Two signature blocks.
	pdf.SetFont("Arial", "", 10)
	y := pdf.GetY()
	pdf.Line(25, y, 80, y)
	pdf.Line(130, y, 185, y)
	pdf.CellFormat(85, 6, "Placement Officer", "", 0, "C", false, 0, "")
	pdf.CellFormat(85, 6, "Academic Supervisor", "", 1, "C", false, 0, "")

	// Footer: verification contact and generation timestamp.
	pdf.SetY(-22)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("To verify this certificate, contact %s quoting the certificate number.", r.VerificationContact), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated at %s", generatedAt.Format(time.RFC3339)), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.Status, "render certificate pdf")
	}
	return buf.Bytes(), nil
}

func validateSnapshot(cert *models.Certificate) error {
	if cert == nil {
		return appErrors.Clone(appErrors.ErrRender, "certificate is nil")
	}
	missing := ""
	switch {
	case cert.Number == "":
		missing = "number"
	case cert.StudentName == "":
		missing = "student name"
	case cert.Department == "":
		missing = "department"
	case cert.Company == "":
		missing = "company"
	case cert.Position == "":
		missing = "position"
	case cert.Duration == "":
		missing = "duration"
	case cert.StartDate.IsZero():
		missing = "start date"
	}
	if missing != "" {
		return appErrors.Clone(appErrors.ErrRender, fmt.Sprintf("certificate snapshot missing %s", missing))
	}
	return nil
}
