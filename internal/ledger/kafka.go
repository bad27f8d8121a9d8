package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/lib/kafka"
)

// DefaultTopic is where finalized orders are published for the downstream
// system of record.
const DefaultTopic = "ledger_orders"

// Kafka publishes order payloads to the ledger topic with full-replica acks.
type Kafka struct {
	producer *kafka.Producer
	topic    string
}

func NewKafka(cfg kafka.Config, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{producer: kafka.NewProducer(cfg), topic: topic}
}

func (k *Kafka) Append(ctx context.Context, payload []byte) error {
	// A payload that does not parse will never parse; do not burn retries.
	order, err := model.ParseOrderPayload(payload)
	if err != nil {
		return Permanent(fmt.Errorf("malformed order payload: %w", err))
	}

	key := order.ItemRef
	if key == "" {
		key = strconv.Itoa(order.Version)
	}
	if err := k.producer.Send(ctx, k.topic, key, json.RawMessage(payload)); err != nil {
		return fmt.Errorf("publish order to ledger topic: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.producer.Close() }
