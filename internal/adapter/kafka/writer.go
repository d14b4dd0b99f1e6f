package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/izumo-civic/civicdata-service/internal/config"
	"github.com/izumo-civic/civicdata-service/internal/domain"
)

// Writer produces parking lot messages to a Kafka topic.
// It implements pipeline.SnapshotLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured parking topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaParkingTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadSnapshot publishes every lot of data in a single WriteMessages call.
// Lots with the same area and name hash to the same partition.
func (w *Writer) LoadSnapshot(ctx context.Context, data domain.ParkingData) error {
	if len(data.Data) == 0 {
		w.logger.Debug("empty snapshot, nothing to publish")
		return nil
	}
	msgs := make([]kafkago.Message, len(data.Data))
	for i := range data.Data {
		msg, err := serializeToMessage(data.Data[i], data.Timestamp)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write parking messages: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies a lot across snapshots; ids are positional and
// change between runs.
func messageKey(lot domain.ParkingLot) []byte {
	return []byte(lot.Area + "/" + lot.Name)
}

// serializeToMessage marshals a ParkingLot into a Kafka message.
func serializeToMessage(lot domain.ParkingLot, collectedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(lot)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize parking lot: %w", err)
	}
	return kafkago.Message{
		Key:   messageKey(lot),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "area", Value: []byte(lot.Area)},
			{Key: "collected_at", Value: []byte(collectedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
