package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// KeyHeader carries the record key on transports that have headers but no key.
const KeyHeader = "Kafkaload-Key"

// NATS publishes to a JetStream stream bound to the topic subject. The stream
// sequence is reported as the offset.
type NATS struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func openNATS(_ context.Context, cfg Config) (*NATS, error) {
	name := cfg.ClientID
	if name == "" {
		name = "kafkaload"
	}

	nc, err := nats.Connect(strings.Join(cfg.Brokers, ","),
		nats.Name(name),
		nats.Timeout(cfg.timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	return &NATS{conn: nc, js: js}, nil
}

func (n *NATS) Publish(ctx context.Context, msg Message) (Ack, error) {
	m := nats.NewMsg(msg.Topic)
	m.Data = msg.Value
	m.Header.Set(KeyHeader, msg.Key)
	for _, h := range msg.Headers {
		m.Header.Set(h.Key, h.Value)
	}

	pa, err := n.js.PublishMsg(ctx, m)
	if err != nil {
		return Ack{}, classify(err)
	}
	return Ack{Topic: pa.Stream, Partition: 0, Offset: int64(pa.Sequence)}, nil
}

func (n *NATS) Flush(ctx context.Context) error {
	return classify(n.conn.FlushWithContext(ctx))
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
