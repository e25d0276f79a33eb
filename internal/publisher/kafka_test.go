package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func kafkaConfig() Config {
	return Config{
		Transport: TransportKafka,
		Brokers:   []string{"localhost:9092"},
		Timeout:   time.Second,
		Retries:   3,
		Logger:    zerolog.Nop(),
	}
}

func TestKafkaPublishAck(t *testing.T) {
	m := new(mockKafkaClient)
	m.On("Ping", mock.Anything).Return(nil)
	m.On("ProduceSync", mock.Anything, mock.MatchedBy(func(rs []*kgo.Record) bool {
		if len(rs) != 1 {
			return false
		}
		r := rs[0]
		return r.Topic == "high-volume-topic" &&
			string(r.Key) == "msg-00000001" &&
			len(r.Headers) == 1 && r.Headers[0].Key == "event_type"
	})).Return(kgo.ProduceResults{{
		Record: &kgo.Record{Topic: "high-volume-topic", Partition: 2, Offset: 41},
	}})

	k, err := openKafka(context.Background(), kafkaConfig(), factoryFor(m))
	require.NoError(t, err)

	ack, err := k.Publish(context.Background(), Message{
		Topic:   "high-volume-topic",
		Key:     "msg-00000001",
		Value:   []byte(`{}`),
		Headers: []Header{{Key: "event_type", Value: "ORDER_CREATED"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), ack.Partition)
	assert.Equal(t, int64(41), ack.Offset)
	assert.Equal(t, "Partition: 2 | Offset: 41", ack.String())
	m.AssertExpectations(t)
}

func TestKafkaPublishErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"broker", errors.New("NOT_LEADER_FOR_PARTITION"), ErrBroker},
		{"timeout", context.DeadlineExceeded, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockKafkaClient)
			m.On("Ping", mock.Anything).Return(nil)
			m.On("ProduceSync", mock.Anything, mock.Anything).Return(kgo.ProduceResults{{
				Record: &kgo.Record{},
				Err:    tt.err,
			}})

			k, err := openKafka(context.Background(), kafkaConfig(), factoryFor(m))
			require.NoError(t, err)

			_, err = k.Publish(context.Background(), Message{Topic: "t", Key: "k"})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestKafkaEmptyResults(t *testing.T) {
	m := new(mockKafkaClient)
	m.On("Ping", mock.Anything).Return(nil)
	m.On("ProduceSync", mock.Anything, mock.Anything).Return(kgo.ProduceResults{})

	k, err := openKafka(context.Background(), kafkaConfig(), factoryFor(m))
	require.NoError(t, err)

	_, err = k.Publish(context.Background(), Message{Topic: "t", Key: "k"})
	assert.ErrorIs(t, err, ErrBroker)
}

func TestKafkaOpenPingFails(t *testing.T) {
	m := new(mockKafkaClient)
	m.On("Ping", mock.Anything).Return(errors.New("dial tcp: connection refused"))
	m.On("Close").Return()

	_, err := openKafka(context.Background(), kafkaConfig(), factoryFor(m))
	assert.Error(t, err)
	m.AssertCalled(t, "Close")
}

func TestKafkaFlushAndClose(t *testing.T) {
	m := new(mockKafkaClient)
	m.On("Ping", mock.Anything).Return(nil)
	m.On("Flush", mock.Anything).Return(nil)
	m.On("Close").Return().Once()

	k, err := openKafka(context.Background(), kafkaConfig(), factoryFor(m))
	require.NoError(t, err)

	require.NoError(t, k.Flush(context.Background()))
	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	m.AssertNumberOfCalls(t, "Close", 1)

	_, err = k.Publish(context.Background(), Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, k.Flush(context.Background()), ErrNotOpen)
}

func TestKafkaOpts(t *testing.T) {
	base := len(kafkaOpts(kafkaConfig()))

	cfg := kafkaConfig()
	cfg.Acks = AcksLeader
	cfg.AutoCreateTopic = true
	cfg.ClientID = "kafkaload-test"
	assert.Equal(t, base+3, len(kafkaOpts(cfg)))
}
