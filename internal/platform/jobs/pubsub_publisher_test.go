package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/canvas-market/api/internal/domain"
)

func TestPubSubOrderEventPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderEventPublisher: %v", err)
	}

	occurredAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	event := domain.OrderEvent{
		Type:           domain.OrderEventStatusChanged,
		OrderID:        "order-1",
		UserID:         "user-1",
		PreviousStatus: domain.OrderStatusPending,
		CurrentStatus:  domain.OrderStatusConfirmed,
		OccurredAt:     occurredAt,
	}

	if _, err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload orderEventMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != "order-1" || payload.CurrentStatus != "confirmed" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if !payload.OccurredAt.Equal(occurredAt) {
		t.Fatalf("unexpected occurredAt %s", payload.OccurredAt)
	}
	if attr := messages[0].Attributes["type"]; attr != string(domain.OrderEventStatusChanged) {
		t.Fatalf("expected type attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["previousStatus"]; attr != "pending" {
		t.Fatalf("expected previousStatus attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["trackingNumber"]; ok {
		t.Fatalf("trackingNumber attribute should not be present")
	}
}

func TestNewPubSubOrderEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderEventPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
