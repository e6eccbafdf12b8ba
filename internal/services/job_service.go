package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"glreport/internal/amqp"
)

// ErrQueueUnavailable is returned when report jobs are requested but no
// queue is configured.
var ErrQueueUnavailable = errors.New("report queue unavailable")

type JobPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// JobService enqueues asynchronous report requests.
type JobService struct {
	queue JobPublisher
}

// NewJobService accepts a nil queue; Enqueue then fails with
// ErrQueueUnavailable.
func NewJobService(queue JobPublisher) *JobService {
	return &JobService{queue: queue}
}

func (s *JobService) Available() bool {
	return s != nil && s.queue != nil
}

// Enqueue publishes a report request for options and returns its job id.
func (s *JobService) Enqueue(ctx context.Context, options map[string]any) (uuid.UUID, error) {
	if !s.Available() {
		return uuid.Nil, ErrQueueUnavailable
	}
	msg := amqp.NewReportRequestMessage(options)
	if err := s.queue.PublishReportRequest(ctx, msg); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue report %s: %w", msg.ID, err)
	}
	return msg.ID, nil
}
