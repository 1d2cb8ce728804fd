package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes each freshly built news payload to a Kafka topic, one
// message per article. It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes the payload in a single WriteMessages call. Articles are
// keyed by ID so repeated builds of the same story land on one partition.
func (w *Writer) Publish(ctx context.Context, builtAt time.Time, articles []domain.EnrichedArticle) error {
	if len(articles) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(articles))
	for i := range articles {
		msg, err := serializeToMessage(articles[i], builtAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d articles: %w", len(msgs), err)
	}
	w.logger.Debug("payload published", "articles", len(msgs), "built_at", builtAt)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an article into a Kafka message.
func serializeToMessage(article domain.EnrichedArticle, builtAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(article)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize article %s: %w", article.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(article.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(article.Category)},
			{Key: "built_at", Value: []byte(builtAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
