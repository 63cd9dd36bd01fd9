// Package kafka mirrors committed change events onto a Kafka topic for
// downstream consumers. Delivery is asynchronous and best effort.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"shelterhub/internal/platform/metrics"
	"shelterhub/pkg/platform/circuit"
)

const (
	defaultPartitions  = 3
	defaultReplication = 1
	breakerThreshold   = 5
	breakerCooldown    = 30 * time.Second
	flushTimeout       = 5 * time.Second
)

// Producer publishes records to a single topic.
type Producer struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Producer)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Producer) {
		p.metrics = m
	}
}

// NewProducer connects to brokers and makes sure topic exists.
func NewProducer(ctx context.Context, brokers []string, topic string, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(10*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}
	if err := EnsureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return newProducer(client, topic, opts...), nil
}

func newProducer(client *kgo.Client, topic string, opts ...Option) *Producer {
	p := &Producer{
		client:  client,
		topic:   topic,
		breaker: circuit.New(breakerThreshold, breakerCooldown),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureTopic creates topic unless it already exists.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, defaultPartitions, defaultReplication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Mirror enqueues payload under key. It never blocks: records are dropped
// while the breaker is open or the client's buffer is full.
func (p *Producer) Mirror(ctx context.Context, key string, payload []byte) {
	if !p.breaker.Allow() {
		p.countFailure()
		return
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: payload}
	p.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err == nil {
			p.breaker.RecordSuccess()
			return
		}
		p.countFailure()
		if errors.Is(err, kgo.ErrMaxBuffered) {
			p.logger.Warn("kafka mirror buffer full, dropping change event", "topic", r.Topic, "key", string(r.Key))
			return
		}
		if p.breaker.RecordFailure() {
			p.logger.Warn("kafka mirror circuit opened", "topic", r.Topic, "error", err)
			return
		}
		p.logger.Warn("failed to mirror change event", "topic", r.Topic, "key", string(r.Key), "error", err)
	})
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka flush on shutdown failed", "error", err)
	}
	p.client.Close()
}

func (p *Producer) countFailure() {
	if p.metrics != nil {
		p.metrics.MirrorFailures.Inc()
	}
}
