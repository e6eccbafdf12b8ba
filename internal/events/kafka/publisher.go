package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"glreport/internal/events"
)

const DefaultTopic = "gl_report_generated"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes report events to a Kafka topic, keyed by report id so
// events for one report land on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		topic: topic,
	}
}

func (p *Publisher) PublishReportGenerated(ctx context.Context, e events.ReportGenerated) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal report event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ReportID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("report.generated")},
		},
	})
	if err != nil {
		return fmt.Errorf("write report event to %s: %w", p.topic, err)
	}

	slog.InfoContext(ctx, "Published report event",
		"component", "kafka",
		"topic", p.topic,
		"report_id", e.ReportID.String(),
		"rows", e.RowCount)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
