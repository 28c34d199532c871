// Package broker provides the durable AMQP transport used to exchange
// messages with the worker fleet. Three logical channels are in play:
// create events out, done and progress events in. Each is bound to its own
// topic exchange, routing key and durable queue.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/climateview/mapgen/internal/logger"
)

// Wire topology. Exchanges are topic-typed and durable; re-declaring them on
// every (re)connect is idempotent.
const (
	// RequestsExchange carries create events to the workers
	RequestsExchange = "requests_exchange"
	// ResultsExchange carries done events back from the workers
	ResultsExchange = "results_exchange"
	// ProgressExchange carries incremental progress events
	ProgressExchange = "progress_exchange"

	// CreateKey is the routing key for create events
	CreateKey = "config.create"
	// DoneKey is the routing key for done events
	DoneKey = "results.done"
	// ProgressKey is the routing key for progress events
	ProgressKey = "progress.update"
)

// Connection behaviour constants
const (
	// ConnectAttempts bounds the initial connect sequence
	ConnectAttempts = 5
	// ReconnectDelay is the fixed delay between reconnect attempts after a drop
	ReconnectDelay = 5 * time.Second
	// BackoffBase is the first delay of the initial connect backoff
	BackoffBase = 500 * time.Millisecond
	// BackoffCap caps the initial connect backoff
	BackoffCap = 10 * time.Second
)

// ErrNotConnected is returned when an operation needs a live channel and the
// client does not have one.
var ErrNotConnected = errors.New("broker not connected")

// Envelope is the wire format shared by all three channels.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Content json.RawMessage `json:"content"`
}

// Handler processes one decoded message. A returned error is handled
// according to the consumer's AckPolicy; it never propagates to the
// connection.
type Handler func(ctx context.Context, env Envelope) error

// binding records one consumer registration so it can be re-established
// after a reconnect.
type binding struct {
	exchange   string
	routingKey string
	queue      string
	policy     AckPolicy
	handler    Handler
}

// Client is a reconnecting AMQP client with at-least-once consume semantics
// and a prefetch of one per consumer.
type Client struct {
	url     string
	dial    DialFunc
	backoff BackoffPolicy
	sleep   func(time.Duration)

	mu       sync.Mutex
	conn     Connection
	ch       Channel
	state    State
	bindings []binding
	done     chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides the dial function. Used by tests.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// WithBackoff overrides the initial-connect backoff policy.
func WithBackoff(p BackoffPolicy) Option {
	return func(c *Client) { c.backoff = p }
}

// WithSleep overrides the sleep function. Used by tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a broker client for the given AMQP URL. The client is
// not connected until Connect is called.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		dial:    defaultDial,
		backoff: ExponentialBackoff(BackoffBase, BackoffCap),
		sleep:   time.Sleep,
		state:   StateDisconnected,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the initial connection with a bounded retry sequence.
// Once connected, a monitor goroutine keeps the connection alive until Close.
func (c *Client) Connect() error {
	c.setState(StateConnecting)

	var lastErr error
	for attempt := 1; attempt <= ConnectAttempts; attempt++ {
		if err := c.establish(); err != nil {
			lastErr = err
			logger.Warnf("Broker connect attempt %d/%d failed: %v", attempt, ConnectAttempts, err)
			if attempt < ConnectAttempts {
				c.sleep(c.backoff(attempt))
			}
			continue
		}
		return nil
	}

	c.setState(StateDisconnected)
	return fmt.Errorf("failed to connect to broker after %d attempts: %w", ConnectAttempts, lastErr)
}

// establish dials, opens a channel, replays the topology for all known
// bindings and starts the close monitor.
func (c *Client) establish() error {
	conn, err := c.dial(c.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.state = StateConnected
	bindings := make([]binding, len(c.bindings))
	copy(bindings, c.bindings)
	c.mu.Unlock()

	for _, b := range bindings {
		if err := c.setupConsumer(ch, b); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to restore consumer on %s: %w", b.queue, err)
		}
	}

	go c.monitor(conn)
	logger.Infof("Broker connected: %d consumer(s) active", len(bindings))
	return nil
}

// monitor waits for an unexpected close and drives the reconnect loop.
// Reconnecting is unbounded: losing the broker permanently is not something
// the service can recover from on its own.
func (c *Client) monitor(conn Connection) {
	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-c.done:
		return
	case amqpErr := <-closeCh:
		if amqpErr == nil {
			// Clean shutdown.
			return
		}
		logger.Errorf("Broker connection lost: %v", amqpErr)
	}

	c.setState(StateReconnecting)
	c.reconnectLoop()
}

// reconnectLoop retries establish at a fixed cadence until it succeeds or the
// client is closed. The loop is unbounded: a broker outage of any length must
// not leave the client permanently dead.
func (c *Client) reconnectLoop() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.sleep(ReconnectDelay)
		if err := c.establish(); err != nil {
			logger.Warnf("Broker reconnect failed: %v", err)
			continue
		}
		return
	}
}

// Publish serializes the envelope to JSON and publishes it as a persistent
// message. A failed publish triggers a reconnect and is reported to the
// caller; it is never swallowed.
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	c.mu.Lock()
	ch := c.ch
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || ch == nil {
		return ErrNotConnected
	}

	if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		logger.Errorf("Publish to %s/%s failed: %v", exchange, routingKey, err)
		go c.reconnectAfterPublishFailure()
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}
	return nil
}

// reconnectAfterPublishFailure tears the broken connection down and drives
// the same unbounded reconnect loop the close monitor uses. Closing the
// connection here delivers a clean shutdown to the monitor goroutine, so this
// loop is the only party reconnecting.
func (c *Client) reconnectAfterPublishFailure() {
	c.mu.Lock()
	if c.state == StateReconnecting || c.state == StateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.reconnectLoop()
}

// DeclareTopology declares an exchange/queue/binding triple without
// consuming from it. Used for the create channel so published events are not
// lost while no worker is bound yet.
func (c *Client) DeclareTopology(exchange, routingKey, queue string) error {
	c.mu.Lock()
	ch := c.ch
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || ch == nil {
		return ErrNotConnected
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

// RegisterHandler declares the exchange/queue/binding triple and starts
// consuming with the given acknowledgment policy. The registration survives
// reconnects.
func (c *Client) RegisterHandler(exchange, routingKey, queue string, policy AckPolicy, handler Handler) error {
	b := binding{
		exchange:   exchange,
		routingKey: routingKey,
		queue:      queue,
		policy:     policy,
		handler:    handler,
	}

	c.mu.Lock()
	c.bindings = append(c.bindings, b)
	ch := c.ch
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || ch == nil {
		// Consumer will be set up once the connection is established.
		return nil
	}
	return c.setupConsumer(ch, b)
}

// setupConsumer declares the topology for one binding and starts its
// delivery loop. Prefetch is one: a consumer processes and acknowledges one
// message at a time.
func (c *Client) setupConsumer(ch Channel, b binding) error {
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", b.exchange, err)
	}
	if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
	}
	if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch on %s: %w", b.queue, err)
	}

	deliveries, err := ch.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", b.queue, err)
	}

	go func() {
		for d := range deliveries {
			c.dispatch(context.Background(), b, d)
		}
	}()
	return nil
}

// dispatch decodes one delivery and applies the binding's acknowledgment
// policy. Malformed payloads are acknowledged and dropped under every policy:
// a message that cannot be parsed will not parse on redelivery either.
func (c *Client) dispatch(ctx context.Context, b binding, d amqp.Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		logger.WarnWithFields("Dropping malformed broker message", map[string]interface{}{
			"queue": b.queue,
			"error": err.Error(),
		})
		c.ack(d)
		return
	}

	if err := b.handler(ctx, env); err != nil {
		logger.ErrorWithFields("Message handler failed", map[string]interface{}{
			"queue":  b.queue,
			"policy": b.policy.String(),
			"error":  err.Error(),
		})
		c.settle(b.policy, d)
		return
	}

	c.ack(d)
}

// settle applies the consumer's error policy to a delivery whose handler
// failed.
func (c *Client) settle(policy AckPolicy, d amqp.Delivery) {
	switch policy {
	case NackRequeueOnce:
		if d.Redelivered {
			// Second failure: drop.
			c.ack(d)
			return
		}
		if err := d.Nack(false, true); err != nil {
			logger.Errorf("Failed to nack message: %v", err)
		}
	case DeadLetter:
		// Requeue disabled; the queue's dead-letter exchange takes over.
		if err := d.Nack(false, false); err != nil {
			logger.Errorf("Failed to dead-letter message: %v", err)
		}
	default: // AckOnError
		c.ack(d)
	}
}

func (c *Client) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Errorf("Failed to ack message: %v", err)
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close shuts the client down. No reconnect is attempted afterwards.
func (c *Client) Close() error {
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
