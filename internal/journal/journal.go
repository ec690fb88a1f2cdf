package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Entry is one administrative event as written to the journal topic.
type Entry struct {
	ProfileID uint        `json:"profile_id"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	At        time.Time   `json:"at"`
}

// Journal records administrative room events to a Kafka topic. A nil
// *Journal is valid and records nothing, so callers never have to guard
// against an unconfigured broker list.
type Journal struct {
	writer *kafka.Writer
}

func New(brokers []string, topic string) *Journal {
	if len(brokers) == 0 {
		return nil
	}
	return &Journal{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
		}),
	}
}

// Record writes one entry keyed by profile ID so events for a profile
// stay ordered within a partition. Failures are logged, never surfaced:
// the journal is advisory and must not affect the event path.
func (j *Journal) Record(ctx context.Context, profileID uint, event string, payload interface{}) {
	if j == nil {
		return
	}
	entry := Entry{
		ProfileID: profileID,
		Event:     event,
		Payload:   payload,
		At:        time.Now().UTC(),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		slog.Error("journal marshal failed", "event", event, "error", err)
		return
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(profileID))
	if err := j.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		slog.Error("journal write failed", "event", event, "profileId", profileID, "error", err)
	}
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.writer.Close()
}
