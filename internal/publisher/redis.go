package publisher

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis appends records to a Redis stream named after the topic. The entry
// id is the delivery coordinate.
type Redis struct {
	client *redis.Client
}

func openRedis(ctx context.Context, cfg Config) (*Redis, error) {
	timeout := cfg.timeout()
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Brokers[0],
		ClientName:   cfg.ClientID,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Publish(ctx context.Context, msg Message) (Ack, error) {
	values := map[string]any{
		"key":   msg.Key,
		"value": msg.Value,
	}
	for _, h := range msg.Headers {
		values[h.Key] = h.Value
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: msg.Topic,
		Values: values,
	}).Result()
	if err != nil {
		return Ack{}, classify(err)
	}
	return Ack{Topic: msg.Topic, ID: id}, nil
}

// Flush is a no-op: XADD is acknowledged synchronously.
func (r *Redis) Flush(context.Context) error {
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
