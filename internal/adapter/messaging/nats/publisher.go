package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("drink-service/nats-publisher")

// Publisher sends domain events as JSON with the trace context in the headers.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

func NewPublisher(url string, log *logger.Logger, appName string) (*Publisher, error) {
	log = log.Named("NATSPublisher")
	log.Info("Connecting to NATS", zap.String("url", url))

	conn, err := nats.Connect(url, connectionOptions(appName, log)...)
	if err != nil {
		log.Error("Failed to connect to NATS", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	log.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return &Publisher{conn: conn, logger: log}, nil
}

// connectionOptions reconnects forever and reports connection state changes.
func connectionOptions(appName string, log *logger.Logger) []nats.Option {
	return []nats.Option{
		nats.Name(appName + " events"),
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			var subject string
			if sub != nil {
				subject = sub.Subject
			}
			log.Error("Asynchronous NATS error", zap.String("subject", subject), zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Lost NATS connection", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}
}

// Publish marshals data to JSON and publishes it on subject.
func (p *Publisher) Publish(ctx context.Context, subject string, data interface{}) error {
	ctx, span := tracer.Start(ctx, "NATS.Publish."+subject)
	defer span.End()
	span.SetAttributes(attribute.String("messaging.destination", subject))

	msg, err := newMessage(ctx, subject, data)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("subject", subject), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal")
		return err
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish")
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Event published", zap.String("subject", subject), zap.Int("data_size_bytes", len(msg.Data)))
	return nil
}

func newMessage(ctx context.Context, subject string, data interface{}) (*nats.Msg, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	// lets JetStream consumers drop redeliveries of the same event
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(msg.Header))
	return msg, nil
}

// HeaderCarrier adapts nats.Header to the otel TextMapCarrier interface.
type HeaderCarrier nats.Header

func (c HeaderCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c HeaderCarrier) Set(key string, value string) {
	nats.Header(c).Set(key, value)
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	p.logger.Info("Draining NATS connection")
	if err := p.conn.Drain(); err != nil {
		p.logger.Error("Failed to drain NATS connection", zap.Error(err))
		p.conn.Close()
	}
}
