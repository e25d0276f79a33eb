// Package publisher adapts message brokers to the narrow publish interface the
// load loop consumes: one bounded, synchronous publish per record plus a
// flush/close lifecycle.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kafkaload/internal/dummy"
)

// DefaultTimeout bounds a single publish when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Transport names a broker family.
type Transport string

const (
	TransportKafka Transport = "kafka"
	TransportMQTT  Transport = "mqtt"
	TransportNATS  Transport = "nats"
	TransportRedis Transport = "redis"
	TransportSim   Transport = "sim"
)

// Header is a message header. Transports without headers drop them.
type Header struct {
	Key   string
	Value string
}

// Message is what the loop hands to Publish.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers []Header
}

// Ack carries the delivery coordinates returned by the broker.
type Ack struct {
	Topic     string
	Partition int32
	Offset    int64

	// ID is set by transports whose coordinates are not numeric (Redis).
	ID string
}

func (a Ack) String() string {
	if a.ID != "" {
		return fmt.Sprintf("ID: %s", a.ID)
	}
	return fmt.Sprintf("Partition: %d | Offset: %d", a.Partition, a.Offset)
}

// Publisher is a broker connection. Publish must return once ctx is done.
// Flush and Close are called exactly once each, in that order, after a
// successful Open.
type Publisher interface {
	Publish(ctx context.Context, msg Message) (Ack, error)
	Flush(ctx context.Context) error
	Close() error
}

// Config selects and configures a transport.
type Config struct {
	Transport Transport
	Brokers   []string

	// Timeout bounds connect and each publish. Default: DefaultTimeout.
	Timeout time.Duration

	// Kafka producer settings.
	Acks            Acks
	Compression     Compression
	Retries         int
	AutoCreateTopic bool

	// MQTT settings.
	ClientID string
	QoS      byte

	// Seed drives the simulated broker. Zero picks a random seed.
	Seed uint64

	Logger zerolog.Logger
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 && c.Transport != TransportSim {
		return errors.Join(ErrValidation, fmt.Errorf("brokers list is required"))
	}
	for i, b := range c.Brokers {
		if strings.TrimSpace(b) == "" {
			return errors.Join(ErrValidation, fmt.Errorf("broker %d is empty", i))
		}
	}
	if c.QoS > 2 {
		return errors.Join(ErrValidation, fmt.Errorf("qos %d is invalid: must be 0, 1 or 2", c.QoS))
	}
	if err := validateAcks(c.Acks); err != nil {
		return err
	}
	return validateCompression(c.Compression)
}

// Open connects the configured transport. Any failure is wrapped in ErrSetup.
func Open(ctx context.Context, cfg Config) (Publisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	var (
		p   Publisher
		err error
	)
	switch Transport(strings.ToLower(string(cfg.Transport))) {
	case TransportKafka, "":
		p, err = openKafka(ctx, cfg, defaultClientFactory)
	case TransportMQTT:
		p, err = openMQTT(ctx, cfg)
	case TransportNATS:
		p, err = openNATS(ctx, cfg)
	case TransportRedis:
		p, err = openRedis(ctx, cfg)
	case TransportSim:
		// Broker addresses meant for another transport fall back to the
		// fast profile.
		profile := dummy.Fast
		if len(cfg.Brokers) > 0 && strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Brokers[0])), "sim://") {
			profile, err = dummy.ParseProfile(cfg.Brokers[0])
		}
		if err == nil {
			p = NewSim(profile, SimOptions{Seed: cfg.Seed})
		}
	default:
		err = errors.Join(ErrValidation, fmt.Errorf("transport '%s' is invalid", cfg.Transport))
	}
	if err != nil {
		return nil, errors.Join(ErrSetup, err)
	}

	cfg.Logger.Info().
		Str("transport", string(cfg.Transport)).
		Strs("brokers", cfg.Brokers).
		Msg("publisher opened")
	return p, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
