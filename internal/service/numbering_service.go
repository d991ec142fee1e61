package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

type sequenceStore interface {
	NextValue(ctx context.Context, issuanceDate time.Time) (int, error)
}

// NumberingService mints certificate numbers that are globally unique
// and traceable to the issuance date.
type NumberingService struct {
	seq    sequenceStore
	org    string
	logger *zap.Logger
}

// NewNumberingService constructs the service.
func NewNumberingService(seq sequenceStore, org string, logger *zap.Logger) *NumberingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NumberingService{seq: seq, org: org, logger: logger}
}

// NextNumber returns the next certificate number for the issuance date.
// Must be called at most once per successful certificate creation; the
// backing counter increment is atomic, so concurrent issuances on the
// same day never collide. Counter failures surface as TRANSIENT so the
// caller can retry with backoff.
func (s *NumberingService) NextNumber(ctx context.Context, issuanceDate time.Time) (string, error) {
	value, err := s.seq.NextValue(ctx, issuanceDate)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "certificate counter timed out")
		}
		return "", appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "certificate counter unavailable")
	}
	number := models.FormatCertificateNumber(s.org, issuanceDate.UTC(), value)
	s.logger.Debug("minted certificate number", zap.String("number", number))
	return number, nil
}
