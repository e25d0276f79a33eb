package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"kafkaload/internal/logging"
)

// kafkaClient is the subset of *kgo.Client the publisher uses, so tests can
// substitute a mock.
type kafkaClient interface {
	// Ping verifies at least one seed broker is reachable.
	Ping(ctx context.Context) error

	// ProduceSync produces records and waits for broker acknowledgment.
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults

	// Flush waits for all buffered records to be sent.
	Flush(ctx context.Context) error

	// Close closes the client and releases resources.
	Close()
}

var _ kafkaClient = (*kgo.Client)(nil)

// clientFactory creates a Kafka client from options; overridden in tests.
type clientFactory func(opts ...kgo.Opt) (kafkaClient, error)

func defaultClientFactory(opts ...kgo.Opt) (kafkaClient, error) {
	return kgo.NewClient(opts...)
}

// Kafka publishes each record synchronously with franz-go.
type Kafka struct {
	log zerolog.Logger

	mu     sync.Mutex
	client kafkaClient
}

func openKafka(ctx context.Context, cfg Config, factory clientFactory) (*Kafka, error) {
	client, err := factory(kafkaOpts(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("no seed broker reachable: %w", err)
	}

	return &Kafka{log: cfg.Logger, client: client}, nil
}

// kafkaOpts converts the configuration into franz-go client options. The
// defaults mirror a durable producer: all-ISR acks, gzip, three retries.
func kafkaOpts(cfg Config) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.WithLogger(logging.NewKgoLogger(cfg.Logger)),
		kgo.RecordDeliveryTimeout(cfg.timeout()),
	}

	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.AutoCreateTopic {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}

	if cfg.Retries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.Retries))
	}

	switch cfg.Acks {
	case AcksLeader:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	case AcksNone:
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}

	switch cfg.Compression {
	case CompressionSnappy:
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case CompressionLz4:
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case CompressionZstd:
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	case CompressionNone:
		opts = append(opts, kgo.ProducerBatchCompression(kgo.NoCompression()))
	default:
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	}

	return opts
}

func (k *Kafka) Publish(ctx context.Context, msg Message) (Ack, error) {
	k.mu.Lock()
	client := k.client
	k.mu.Unlock()

	if client == nil {
		return Ack{}, ErrNotOpen
	}

	record := &kgo.Record{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Value,
	}
	for _, h := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: h.Key, Value: []byte(h.Value)})
	}

	results := client.ProduceSync(ctx, record)
	if len(results) == 0 {
		return Ack{}, classify(errNoRecords)
	}
	r, err := results[0].Record, results[0].Err
	if err != nil {
		return Ack{}, classify(fmt.Errorf("broker rejected message: %w", err))
	}

	return Ack{Topic: r.Topic, Partition: r.Partition, Offset: r.Offset}, nil
}

func (k *Kafka) Flush(ctx context.Context) error {
	k.mu.Lock()
	client := k.client
	k.mu.Unlock()

	if client == nil {
		return ErrNotOpen
	}
	if err := client.Flush(ctx); err != nil {
		k.log.Warn().Err(err).Msg("flush incomplete during shutdown")
		return classify(err)
	}
	return nil
}

// Close is idempotent.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.client == nil {
		return nil
	}
	k.client.Close()
	k.client = nil
	return nil
}

// errNoRecords guards against a ProduceSync result without records.
var errNoRecords = errors.New("no produce result")
