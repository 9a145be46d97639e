package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Broker distributes change events to every listening hub.
type Broker interface {
	Publish(ctx context.Context, c Change) error
	// Listen returns a channel of changes that is closed when ctx ends.
	Listen(ctx context.Context) (<-chan Change, error)
}

// LocalBroker delivers changes within the process.
type LocalBroker struct {
	mu        sync.RWMutex
	listeners map[chan Change]context.Context
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{listeners: make(map[chan Change]context.Context)}
}

func (b *LocalBroker) Publish(ctx context.Context, c Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, lctx := range b.listeners {
		select {
		case ch <- c:
		case <-lctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *LocalBroker) Listen(ctx context.Context) (<-chan Change, error) {
	in := make(chan Change, 16)
	out := make(chan Change)

	b.mu.Lock()
	b.listeners[in] = ctx
	b.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.listeners, in)
			b.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case c := <-in:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// RedisBroker fans changes out to every instance through a Redis pub/sub channel.
type RedisBroker struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewBroker returns a RedisBroker, or a LocalBroker when client is nil.
func NewBroker(client *redis.Client, channel string, log zerolog.Logger) Broker {
	if client == nil {
		log.Warn().Msg("Redis недоступен, используется локальная шина изменений")
		return NewLocalBroker()
	}
	return &RedisBroker{client: client, channel: channel, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, c Change) error {
	payload, err := EncodeChange(c)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("ошибка публикации изменения в Redis: %w", err)
	}
	return nil
}

func (b *RedisBroker) Listen(ctx context.Context) (<-chan Change, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("ошибка подписки на канал %s: %w", b.channel, err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				c, err := DecodeChange(msg.Payload)
				if err != nil {
					b.log.Warn().Err(err).Msg("Пропущено некорректное сообщение")
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func EncodeChange(c Change) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации изменения: %w", err)
	}
	return string(data), nil
}

func DecodeChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("ошибка разбора изменения: %w", err)
	}
	if c.Collection != CollectionArticles && c.Collection != CollectionUsers {
		return Change{}, fmt.Errorf("неизвестная коллекция %q", c.Collection)
	}
	return c, nil
}
