package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/amqp"
)

type recordingQueue struct {
	msgs []*amqp.ReportRequestMessage
	err  error
}

func (q *recordingQueue) PublishReportRequest(_ context.Context, msg *amqp.ReportRequestMessage) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func TestJobService_Enqueue(t *testing.T) {
	q := &recordingQueue{}
	svc := NewJobService(q)
	require.True(t, svc.Available())

	id, err := svc.Enqueue(context.Background(), map[string]any{"company": "Acme"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.Len(t, q.msgs, 1)
	assert.Equal(t, id, q.msgs[0].ID)
	assert.Equal(t, "Acme", q.msgs[0].Filters["company"])
}

func TestJobService_NoQueue(t *testing.T) {
	svc := NewJobService(nil)
	assert.False(t, svc.Available())
	_, err := svc.Enqueue(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQueueUnavailable)

	var nilSvc *JobService
	assert.False(t, nilSvc.Available())
}

func TestJobService_PublishError(t *testing.T) {
	svc := NewJobService(&recordingQueue{err: errors.New("circuit breaker is open")})
	id, err := svc.Enqueue(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, id)
	assert.NotErrorIs(t, err, ErrQueueUnavailable)
}
