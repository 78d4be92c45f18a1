// Package publish emits validation outcome events so downstream
// reward-accounting and notification collaborators can react without
// polling the results table.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// OutcomeEvent is the wire payload for one validation attempt.
type OutcomeEvent struct {
	TripID     string    `json:"trip_id"`
	UserID     string    `json:"user_id"`
	TravelMode string    `json:"travel_mode"`
	Attempt    int       `json:"attempt"`
	Category   string    `json:"category"`
	Passed     bool      `json:"passed"`
	TotalScore float64   `json:"total_score"`
	Confidence float64   `json:"confidence"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the outbound event interface the service depends on.
type Publisher interface {
	PublishOutcome(ctx context.Context, trip *domain.Trip, result *domain.ValidationResult) error
	Close() error
}

// KafkaPublisher writes outcome events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaPublisher{writer: w}
}

// PublishOutcome emits one event keyed by trip id.
func (p *KafkaPublisher) PublishOutcome(ctx context.Context, trip *domain.Trip, result *domain.ValidationResult) error {
	event := OutcomeEvent{
		TripID:     trip.ID,
		UserID:     trip.UserID,
		TravelMode: string(trip.TravelMode),
		Attempt:    result.Attempt,
		Category:   string(result.Category),
		Passed:     result.Passed,
		TotalScore: result.TotalScore,
		Confidence: result.Confidence,
		OccurredAt: result.CreatedAt,
	}

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(trip.ID), Value: b})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Ensure KafkaPublisher implements Publisher.
var _ Publisher = (*KafkaPublisher)(nil)
