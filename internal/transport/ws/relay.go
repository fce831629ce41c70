package ws

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

const RelayChannel = "frameverse:realtime"

// RedisRelay fans broadcasts out to every instance subscribed to RelayChannel.
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(client *redis.Client) *RedisRelay {
	return &RedisRelay{client: client}
}

func (r *RedisRelay) Publish(ctx context.Context, env *Envelope) error {
	payload, err := msgpack.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	return r.client.Publish(ctx, RelayChannel, payload).Err()
}

// Run delivers envelopes from other instances to hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, hub *Hub) error {
	sub := r.client.Subscribe(ctx, RelayChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", RelayChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Msg("ws: dropping malformed relay envelope")
				continue
			}
			hub.Deliver(env)
		}
	}
}

func decodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
