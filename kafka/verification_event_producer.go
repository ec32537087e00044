package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"cod-verifier/models"
)

// EventPublisher announces terminal payment transitions to downstream
// consumers. Publishing is best effort: a broker failure never blocks or
// reverses a transition.
type EventPublisher interface {
	SendVerificationEvent(event models.VerificationEvent) error
}

type VerificationEventProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewVerificationEventProducer(brokers []string, topic string) *VerificationEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[CODVerifier][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &VerificationEventProducer{writer: w, topic: topic}
}

func (p *VerificationEventProducer) SendVerificationEvent(event models.VerificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderRef),
		Value: data,
	}

	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		log.Printf("[CODVerifier] ❌ Failed to send verification event: %v", err)
		return err
	}

	return nil
}

func (p *VerificationEventProducer) Close() {
	_ = p.writer.Close()
	log.Println("[CODVerifier] 🔌 Kafka producer closed")
}
