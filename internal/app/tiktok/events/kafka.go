package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaCollector publishes events to a topic without waiting for acks.
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			Async:    true,
			Completion: func(_ []kafka.Message, err error) {
				if err != nil {
					slog.Error("kafka write failed", "err", err)
				}
			},
		},
	}
}

func (k *KafkaCollector) Collect(event LookupEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal lookup event failed", "err", err)
		return
	}
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Submission),
		Value: data,
	}); err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}

// KafkaConsumer reads events published by KafkaCollector and flushes them
// in batches.
type KafkaConsumer struct {
	reader    *kafka.Reader
	flush     FlushFunc
	batchSize int
	interval  time.Duration
}

func NewKafkaConsumer(brokers []string, topic, group string, flush FlushFunc) *KafkaConsumer {
	if flush == nil {
		flush = LogFlush("kafka")
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  group,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		flush:     flush,
		batchSize: 100,
		interval:  time.Second,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	msgCh := make(chan LookupEvent, k.batchSize)

	go func() {
		defer close(msgCh)
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				slog.Error("kafka read failed", "err", err)
				continue
			}
			var event LookupEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("unmarshal lookup event failed", "err", err, "offset", msg.Offset)
				continue
			}
			select {
			case msgCh <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	runBatches(ctx, msgCh, k.batchSize, k.interval, k.flush)
}

func (k *KafkaConsumer) Close() error {
	return k.reader.Close()
}
