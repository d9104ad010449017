package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/core/store/domain"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestNew_NoBrokersIsNoop(t *testing.T) {
	p, closeFn, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(domain.NoopPublisher); !ok {
		t.Fatalf("publisher = %T, want NoopPublisher", p)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	defer producer.Close()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "storefront.events" {
			return fmt.Errorf("topic = %s", m.Topic)
		}
		key, _ := m.Key.Encode()
		if string(key) != "ref-1" {
			return fmt.Errorf("key = %s", key)
		}
		raw, _ := m.Value.Encode()
		var got message
		if err := json.Unmarshal(raw, &got); err != nil {
			return err
		}
		if got.Type != "order.completed" || got.Key != "ref-1" {
			return fmt.Errorf("message = %+v", got)
		}
		return nil
	})

	p := NewKafkaPublisher(producer, "storefront.events")
	err := p.Publish(context.Background(), domain.Event{
		Type:       "order.completed",
		Key:        "ref-1",
		OccurredAt: time.Now(),
		Payload:    map[string]int64{"total": 1000},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	defer producer.Close()

	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	p := NewKafkaPublisher(producer, "t")
	if err := p.Publish(context.Background(), domain.Event{Type: "transfer.paid"}); err == nil {
		t.Fatal("expected error")
	}
}
