// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"storefront/core/store/domain"

	"github.com/IBM/sarama"
)

type Config struct {
	// Publishing is disabled when no broker is configured.
	Brokers  []string      `env:"BROKERS" envSeparator:","`
	Topic    string        `env:"TOPIC" envDefault:"storefront.events"`
	ClientID string        `env:"CLIENT_ID" envDefault:"storefront"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// message is the wire form of a domain event.
type message struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// New returns a Kafka publisher, or a no-op one when cfg names no broker.
func New(cfg Config) (domain.EventPublisher, func() error, error) {
	if len(cfg.Brokers) == 0 {
		return domain.NoopPublisher{}, func() error { return nil }, nil
	}

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Idempotent = true
	sc.Producer.Retry.Max = 5
	sc.Producer.Timeout = cfg.Timeout
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, nil, fmt.Errorf("events: connect %v: %w", cfg.Brokers, err)
	}
	p := NewKafkaPublisher(producer, cfg.Topic)
	return p, producer.Close, nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish sends e keyed by e.Key, so events of one order or transfer stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e domain.Event) error {
	value, err := json.Marshal(message{
		Type:       e.Type,
		Key:        e.Key,
		OccurredAt: e.OccurredAt.UTC(),
		Payload:    e.Payload,
	})
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.Key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
		},
		Timestamp: e.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", e.Type, err)
	}

	slog.DebugContext(ctx, "event published",
		slog.String("type", e.Type),
		slog.String("key", e.Key),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}
