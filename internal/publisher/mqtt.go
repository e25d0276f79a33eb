package publisher

import (
	"context"
	"errors"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTT publishes to an MQTT broker. MQTT has no record key or headers; the
// key only reaches the broker inside the encoded record.
type MQTT struct {
	client mqtt.Client
	qos    byte
}

func openMQTT(_ context.Context, cfg Config) (*MQTT, error) {
	timeout := cfg.timeout()

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "kafkaload-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	for _, b := range cfg.Brokers {
		opts.AddBroker(b)
	}
	opts.SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetWriteTimeout(timeout).
		SetAutoReconnect(true).
		SetCleanSession(true)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, errors.Join(ErrTimeout, fmt.Errorf("mqtt connect after %s", timeout))
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &MQTT{client: client, qos: cfg.QoS}, nil
}

func (m *MQTT) Publish(ctx context.Context, msg Message) (Ack, error) {
	if !m.client.IsConnectionOpen() {
		return Ack{}, errors.Join(ErrBroker, errors.New("mqtt connection not open"))
	}

	tok := m.client.Publish(msg.Topic, m.qos, false, msg.Value)
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return Ack{}, classify(ctx.Err())
	}
	if err := tok.Error(); err != nil {
		return Ack{}, classify(err)
	}

	ack := Ack{Topic: msg.Topic, Partition: -1, Offset: -1}
	if pt, ok := tok.(*mqtt.PublishToken); ok {
		ack.Offset = int64(pt.MessageID())
	}
	return ack, nil
}

// Flush is a no-op: every publish already waited for its token.
func (m *MQTT) Flush(context.Context) error {
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
