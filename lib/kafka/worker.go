package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Message[T any] struct {
	Topic   string
	Value   T
	Headers map[string]string
	Key     string
	Raw     kafka.Message
}

type Handler[T any] func(ctx context.Context, msg Message[T]) error

// Worker is a generic consumer: it reads a topic group, decodes each message
// into T and hands it to the handler, committing only on success.
type Worker[T any] struct {
	r      *kafka.Reader
	sem    chan struct{}
	handle Handler[T]
}

func NewWorker[T any](cfg Config, group string, topics []string, concurrency int, handler Handler[T]) *Worker[T] {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     group,
		GroupTopics: topics,
		MinBytes:    1e3,
		MaxBytes:    10e6,
	})
	return &Worker[T]{r: r, sem: make(chan struct{}, concurrency), handle: handler}
}

func (w *Worker[T]) Run(ctx context.Context) error {
	for {
		m, err := w.r.FetchMessage(ctx)
		if err != nil {
			return err
		}
		w.sem <- struct{}{}
		go func(m kafka.Message) {
			defer func() { <-w.sem }()
			var val T
			if err := json.Unmarshal(m.Value, &val); err != nil {
				logrus.WithError(err).WithField("topic", m.Topic).Error("Failed to decode kafka message, skipping")
				_ = w.r.CommitMessages(ctx, m)
				return
			}
			h := map[string]string{}
			for _, x := range m.Headers {
				h[string(x.Key)] = string(x.Value)
			}
			err := w.handle(ctx, Message[T]{
				Topic:   m.Topic,
				Value:   val,
				Key:     string(m.Key),
				Headers: h,
				Raw:     m,
			})
			if err != nil {
				logrus.WithError(err).WithField("topic", m.Topic).Error("Kafka handler failed")
			} else {
				_ = w.r.CommitMessages(ctx, m)
			}
		}(m)
	}
}

func (w *Worker[T]) Close() error { return w.r.Close() }
