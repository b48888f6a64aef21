// Package queue_publisher publishes crawler items to RabbitMQ.  Crawlers and
// the feed tool use it to hand records to the reconciliation worker.
package queue_publisher

import (
    "context"
    "errors"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cinema-reconciler/internal/item"
    "github.com/iliyamo/cinema-reconciler/internal/logging"
)

// Publisher holds one broker connection and channel for a stream of items.
// It is not safe for concurrent use; amqp channels are not.
type Publisher struct {
    conn  *amqp.Connection
    ch    *amqp.Channel
    queue string
}

// NewPublisher dials url and declares queue (durable, so items survive a
// broker restart).
func NewPublisher(url, queue string) (*Publisher, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// PublishItem validates the envelope shape and publishes it as a persistent
// message.  The correlation id in ctx, if any, travels with the message.
func (p *Publisher) PublishItem(ctx context.Context, env item.Envelope) error {
    if !env.Type.Valid() {
        return errors.New("unknown item type " + string(env.Type))
    }
    body, err := json.Marshal(env)
    if err != nil {
        return err
    }
    return p.PublishRaw(ctx, body)
}

// PublishRaw publishes an already encoded envelope.
func (p *Publisher) PublishRaw(ctx context.Context, body []byte) error {
    pub := amqp.Publishing{
        ContentType:   "application/json",
        DeliveryMode:  amqp.Persistent, // store on disk
        Timestamp:     time.Now().UTC(),
        CorrelationId: logging.CorrelationIDFromContext(ctx),
        Body:          body,
    }
    if err := p.ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        logging.Ctx(ctx).Error().Err(err).Str("queue", p.queue).Msg("publish failed")
        return err
    }
    return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
    return errors.Join(p.ch.Close(), p.conn.Close())
}

// PublishItem publishes a single item on a short-lived connection.
func PublishItem(ctx context.Context, url, queue string, env item.Envelope) error {
    p, err := NewPublisher(url, queue)
    if err != nil {
        logging.Ctx(ctx).Error().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = p.Close() }()
    return p.PublishItem(ctx, env)
}

// URLPublisher publishes each item on its own short-lived connection, so a
// single value can be shared by concurrent HTTP handlers.
type URLPublisher struct {
    URL   string
    Queue string
}

// PublishItem implements the HTTP ingest publisher.
func (u URLPublisher) PublishItem(ctx context.Context, env item.Envelope) error {
    return PublishItem(ctx, u.URL, u.Queue, env)
}
