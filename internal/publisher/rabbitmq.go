// Package publisher fans finalized items out to RabbitMQ for downstream
// consumers.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"forum_relay/internal/domain"
)

// Config controls the optional item event feed. The monitor only dials
// RabbitMQ when Enabled is set; otherwise items are finalized without events.
type Config struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// RabbitMQ publishes ItemEvents to a topic exchange. Each event is routed as
// "<routing_key>.<action>", so consumers can bind to only failed items.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	baseKey  string
	logger   *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		baseKey:  cfg.RoutingKey,
		logger:   logger.With("component", "publisher", "exchange", cfg.Exchange),
	}

	if err := declareTopology(ch, cfg); err != nil {
		return nil, errors.Join(err, r.Close())
	}

	r.logger.Info("item event feed ready",
		"queue", cfg.QueueName,
		"binding", bindingKey(cfg.RoutingKey),
	)
	return r, nil
}

// declareTopology declares the durable exchange and, when a queue name is
// configured, a durable queue bound to every action under the routing key.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}
	if cfg.QueueName == "" {
		return nil
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %q: %w", cfg.QueueName, err)
	}
	if err := ch.QueueBind(q.Name, bindingKey(cfg.RoutingKey), cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %q: %w", q.Name, err)
	}
	return nil
}

func bindingKey(base string) string {
	return base + ".#"
}

func eventRoutingKey(base string, event *domain.ItemEvent) string {
	return base + "." + event.Action
}

func eventHeaders(event *domain.ItemEvent) amqp.Table {
	return amqp.Table{
		"source":    event.Source,
		"source_id": event.Item.SourceID,
		"item_id":   event.Item.ID,
	}
}

// Publish sends a finalized item as a persistent JSON message.
func (r *RabbitMQ) Publish(ctx context.Context, event *domain.ItemEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal item event: %w", err)
	}

	key := eventRoutingKey(r.baseKey, event)
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.Item.ID,
		Type:         event.Action,
		Headers:      eventHeaders(event),
		Body:         body,
		Timestamp:    event.Timestamp,
	}
	if err := r.channel.PublishWithContext(ctx, r.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish item %s from %s: %w", event.Item.ID, event.Source, err)
	}

	r.logger.Debug("published item event",
		"source", event.Source,
		"item_id", event.Item.ID,
		"action", event.Action,
		"routing_key", key,
	)
	return nil
}

// Close releases the channel and the connection.
func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
