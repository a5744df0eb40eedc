package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/backstage/services/picking/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// Event types published by the service
const (
	EventPickListGenerated = "picklist.generated"
	EventPickListFinished  = "picklist.finished"
	EventCarrierAssigned   = "picklist.carrier_assigned"
)

// Event is the envelope sent on the queue
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// serviceBusPublisher implements Publisher over an Azure Service Bus queue
type serviceBusPublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
	source string
}

// NewServiceBusPublisher creates a publisher for the configured queue
func NewServiceBusPublisher(cfg config.AzureConfig, source string) (Publisher, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusPublisher{client: client, sender: sender, source: source}, nil
}

// Publish sends one event as a JSON message
func (p *serviceBusPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	contentType := "application/json"
	msg := &azservicebus.Message{
		Body:        data,
		ContentType: &contentType,
		Subject:     &event.Type,
		ApplicationProperties: map[string]interface{}{
			"source": p.source,
			"type":   event.Type,
			"time":   event.OccurredAt.UTC().Format(time.RFC3339),
		},
	}

	return p.sender.SendMessage(ctx, msg, nil)
}

// Close closes the sender and the client
func (p *serviceBusPublisher) Close() error {
	if err := p.sender.Close(context.Background()); err != nil {
		return err
	}
	return p.client.Close(context.Background())
}

// NoopPublisher drops every event. It is used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
