package rabbitmq

import (
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and the channel used to publish
// domain events on a topic exchange.
type Client struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	exchange    string
	mu          sync.Mutex // amqp channels are not safe for concurrent publishing
	openChannel func() (consumerChannel, error)
	consumers   []consumerChannel
}

// consumerChannel is the part of *amqp.Channel a consumer needs.
type consumerChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

const consumerPrefetch = 16

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the durable topic exchange
// events are published to.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Printf("RabbitMQ client connected and exchange %s declared.", cfg.Exchange)

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
	}
	client.openChannel = func() (consumerChannel, error) {
		consumer, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return consumer, nil
	}
	return client, nil
}

// Close closes the consumer channels, the publishing channel and the connection.
func (c *Client) Close() error {
	var errs []error
	c.mu.Lock()
	consumers := c.consumers
	c.consumers = nil
	c.mu.Unlock()
	for _, ch := range consumers {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close consumer channel: %w", err))
		}
	}
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a JSON event body with the given routing key, e.g. "product.created".
func (c *Client) Publish(routingKey string, body []byte) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", routingKey, err)
	}

	log.Printf(" [x] Sent %s event: %s", routingKey, body)
	return nil
}

// ConsumeEvents opens a dedicated channel, binds a durable queue to the
// exchange for every pattern and hands deliveries to handler on a goroutine.
// A nil error from handler acks the message; an error nacks it without requeue.
func (c *Client) ConsumeEvents(queueName string, patterns []string, handler func(msg amqp.Delivery) error) error {
	if c == nil || c.openChannel == nil {
		return fmt.Errorf("RabbitMQ connection is not available for consumption")
	}

	// Consumer flow control must not block the publishing channel.
	ch, err := c.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	msgs, err := consume(ch, c.exchange, queueName, patterns)
	if err != nil {
		ch.Close()
		return err
	}

	c.mu.Lock()
	c.consumers = append(c.consumers, ch)
	c.mu.Unlock()

	log.Printf(" [*] Waiting for %v events on %s", patterns, queueName)

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				log.Printf("Error processing message %d (%s): %v", msg.DeliveryTag, msg.RoutingKey, err)
				// Requeueing a message the handler cannot process would loop forever.
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}

func consume(ch consumerChannel, exchange, queueName string, patterns []string) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set consumer prefetch: %w", err)
	}

	queue, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	for _, pattern := range patterns {
		if err := ch.QueueBind(queue.Name, pattern, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", queue.Name, pattern, err)
		}
	}

	msgs, err := ch.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}
