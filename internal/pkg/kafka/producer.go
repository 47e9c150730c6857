package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes JSON events. Delivery is best effort.
type Producer interface {
	SendMessage(ctx context.Context, key string, message any) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first reachable broker, creates the topic when
// missing and falls back to a logging producer when Kafka is unavailable.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		logrus.Warn("No Kafka brokers configured, events will only be logged")
		return NewLogProducer(topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logrus.WithError(err).WithField("brokers", brokers).Warn("Kafka connection failed, using log producer instead")
		return NewLogProducer(topic)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Infof("Could not create topic %s (might already exist)", topic)
	}

	logrus.WithField("brokers", brokers).Infof("Kafka producer configured for topic %s", topic)
	return &kafkaProducer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message any) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).WithField("topic", p.topic).Error("Failed to write message to Kafka")
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "key": key}).Debug("Message sent to Kafka")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// logProducer stands in for Kafka when no broker is reachable
type logProducer struct {
	topic string
}

func NewLogProducer(topic string) Producer {
	return &logProducer{topic: topic}
}

func (p *logProducer) SendMessage(_ context.Context, key string, message any) error {
	logrus.WithFields(logrus.Fields{
		"topic": p.topic,
		"key":   key,
		"event": message,
	}).Info("Event")
	return nil
}

func (p *logProducer) Close() error {
	return nil
}
