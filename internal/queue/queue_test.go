package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := q.Publish(ctx, Message{Type: "mail", Body: json.RawMessage(`{"to":"a@x.com"}`)}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.Type != "mail" || string(msg.Body) != `{"to":"a@x.com"}` {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	cancel()
	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishDoesNotBlock(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	if err := q.Publish(ctx, Message{Type: "mail"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := q.Publish(ctx, Message{Type: "mail"}); !errors.Is(err, ErrFull) {
		t.Fatalf("second publish err = %v, want ErrFull", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := NewInMemory(4).Publish(cancelled, Message{Type: "mail"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("publish on cancelled ctx err = %v", err)
	}
}
