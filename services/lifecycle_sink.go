package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLifecycleSink appends every committed lifecycle change to a topic,
// keyed by request id so one request's history stays ordered in a partition.
type KafkaLifecycleSink struct {
	writer MessageWriter
}

func NewKafkaLifecycleSink(brokers []string, topic string) *KafkaLifecycleSink {
	return &KafkaLifecycleSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (s *KafkaLifecycleSink) Record(ctx context.Context, evt models.LifecycleEvent) {
	msg, err := lifecycleMessage(evt)
	if err != nil {
		log.Printf("[lifecycle] encode event for %s: %v", evt.RequestID, err)
		return
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[lifecycle] write event for %s: %v", evt.RequestID, err)
	}
}

func (s *KafkaLifecycleSink) Close() error {
	return s.writer.Close()
}

func lifecycleMessage(evt models.LifecycleEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.RequestID),
		Value: value,
		Time:  evt.OccurredAt,
	}, nil
}
