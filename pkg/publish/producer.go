// Package publish sends computed chart and cohort payloads to Kafka for downstream dashboards.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/models"
)

// Payload kinds carried in the "kind" header.
const (
	KindCohort    = "cohort"
	KindRates     = "claims-rate"
	KindOverTime  = "claims-over-time"
	headerKind    = "kind"
	headerVersion = "schema-version"
	schemaVersion = "1"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes analytics payloads to one topic.
type Producer struct {
	writer Writer
	logger *zap.Logger
	now    func() time.Time
}

// NewProducer creates a Kafka producer for topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}, logger), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w Writer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{writer: w, logger: logger, now: time.Now}
}

// CohortMessage is the value published for one cohort run.
type CohortMessage struct {
	RunID       string                   `json:"runId"`
	Product     string                   `json:"product"`
	ClaimType   models.ClaimType         `json:"claimType"`
	StartMonth  string                   `json:"startMonth"`
	EndMonth    string                   `json:"endMonth"`
	Quality     models.DataQuality       `json:"dataQuality"`
	Points      []models.CohortDataPoint `json:"points"`
	PublishedAt time.Time                `json:"publishedAt"`
}

// PublishCohort sends one cohort table keyed by run id. An empty runID gets a fresh one.
func (p *Producer) PublishCohort(ctx context.Context, runID string, req models.CohortRequest, res calculator.CohortResult) (string, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	msg := CohortMessage{
		RunID:       runID,
		Product:     req.Product,
		ClaimType:   req.ClaimType,
		StartMonth:  req.StartMonth,
		EndMonth:    req.EndMonth,
		Quality:     res.Quality,
		Points:      res.Points,
		PublishedAt: p.now().UTC(),
	}
	if err := p.send(ctx, KindCohort, runID, msg); err != nil {
		return "", err
	}
	return runID, nil
}

// PublishClaims sends a claims-rate or claims-over-time payload under a fresh key.
func (p *Producer) PublishClaims(ctx context.Context, kind string, payload any) (string, error) {
	key := uuid.NewString()
	if err := p.send(ctx, kind, key, payload); err != nil {
		return "", err
	}
	return key, nil
}

func (p *Producer) send(ctx context.Context, kind, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: headerKind, Value: []byte(kind)},
			{Key: headerVersion, Value: []byte(schemaVersion)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	p.logger.Info("payload published",
		zap.String("kind", kind),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
