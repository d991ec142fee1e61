package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	"github.com/kirtipatel215/Internship-Management-System-sub002/pkg/jobs"
)

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotifierService relays domain events emitted by the workflow engine.
// Delivery beyond structured logging and cache invalidation is left to
// an external pub/sub layer.
type NotifierService struct {
	queue     jobEnqueuer
	dashboard dashboardInvalidator
	logger    *zap.Logger
}

// NewNotifierService constructs the notifier.
func NewNotifierService(queue jobEnqueuer, dashboard dashboardInvalidator, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifierService{queue: queue, dashboard: dashboard, logger: logger}
}

// Dispatch enqueues the event for asynchronous handling. The review
// call itself never blocks on delivery.
func (s *NotifierService) Dispatch(event models.DomainEvent) {
	if s.queue == nil {
		s.handle(context.Background(), event)
		return
	}
	job := jobs.Job{
		ID:      event.RequestID,
		Type:    string(event.Type),
		Payload: event,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue domain event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// HandleJob is the queue handler consuming dispatched events.
func (s *NotifierService) HandleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.DomainEvent)
	if !ok {
		s.logger.Warn("dropping malformed domain event", zap.String("job_id", job.ID))
		return nil
	}
	s.handle(ctx, event)
	return nil
}

func (s *NotifierService) handle(ctx context.Context, event models.DomainEvent) {
	s.logger.Info("domain event",
		zap.String("type", string(event.Type)),
		zap.String("request_id", event.RequestID),
		zap.String("student_id", event.StudentID),
		zap.String("reviewer_id", event.ReviewerID),
		zap.Time("occurred_at", event.OccurredAt),
	)
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}
