package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shatami1/Comcare/internal/constants"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewCheckoutSessionCreatedComputesTotal(t *testing.T) {
	event := NewCheckoutSessionCreated("cs_1", "http://localhost:3000", "usd", []CheckoutItem{
		{Name: "Bed", UnitAmount: 4500, Quantity: 2},
		{Name: "Cane", UnitAmount: 500, Quantity: 1},
	})
	if event.TotalAmount != 9500 {
		t.Fatalf("total want 9500 got %d", event.TotalAmount)
	}
	if event.EventID == "" || event.EventType != constants.EventCheckoutSessionCreated || event.Timestamp.IsZero() {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
}

func TestRabbitPublisherPublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	publisher := &RabbitPublisher{ch: ch, exchange: exchangeName("")}
	event := NewCheckoutSessionCreated("cs_1", "", "usd", nil)

	if err := publisher.Publish(context.Background(), constants.EventCheckoutSessionCreated, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if ch.exchange != "comfortcare.events" || ch.key != constants.EventCheckoutSessionCreated {
		t.Fatalf("unexpected routing: %s %s", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected publishing: %+v", ch.msg)
	}
	var decoded CheckoutSessionCreated
	if err := json.Unmarshal(ch.msg.Body, &decoded); err != nil || decoded.SessionID != "cs_1" {
		t.Fatalf("unexpected body %s err=%v", ch.msg.Body, err)
	}

	if err := publisher.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !ch.closed {
		t.Fatalf("channel should be closed")
	}
	if err := publisher.Publish(context.Background(), "x", event); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("want ErrPublisherClosed got %v", err)
	}
}
