// Package feed implements live queries: a subscriber receives an initial
// snapshot of its query and a fresh snapshot after every relevant change, until
// it closes the subscription or its context ends.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"storyhub/internal/repository"
)

type Collection string

const (
	CollectionArticles Collection = "articles"
	CollectionUsers    Collection = "users"
)

// Change announces that a document in a collection was written.
type Change struct {
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	AuthorID   string     `json:"authorId,omitempty"`
}

// Query describes a live query. Filter applies to the articles collection only.
type Query struct {
	Collection Collection
	Filter     repository.ArticleFilter
}

// Affected reports whether c may change the result of q.
func (q Query) Affected(c Change) bool {
	if c.Collection != q.Collection {
		return false
	}
	if q.Filter.AuthorID != "" && c.AuthorID != "" && c.AuthorID != q.Filter.AuthorID {
		return false
	}
	return true
}

type Snapshot[T any] struct {
	Items   []T
	Version uint64
	At      time.Time
}

// Loader executes a query against the store.
type Loader[T any] func(ctx context.Context, q Query) ([]T, error)

type Hub[T any] struct {
	load Loader[T]
	log  zerolog.Logger

	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

func NewHub[T any](load Loader[T], log zerolog.Logger) *Hub[T] {
	return &Hub[T]{
		load: load,
		log:  log,
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe starts a live query. The first snapshot arrives on Updates as soon
// as the initial load completes.
func (h *Hub[T]) Subscribe(ctx context.Context, q Query) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription[T]{
		query:   q,
		updates: make(chan Snapshot[T], 1),
		errs:    make(chan error, 1),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go h.serve(ctx, sub)

	return sub
}

func (h *Hub[T]) serve(ctx context.Context, sub *Subscription[T]) {
	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.updates)
		close(sub.done)
	}()

	var version uint64
	for {
		items, err := h.load(ctx, sub.query)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			h.log.Error().Err(err).Str("collection", string(sub.query.Collection)).Msg("Ошибка загрузки подписки")
			Offer(sub.errs, err)
		default:
			version++
			Offer(sub.updates, Snapshot[T]{Items: items, Version: version, At: time.Now().UTC()})
		}

		select {
		case <-ctx.Done():
			return
		case <-sub.dirty:
		}
	}
}

// Notify schedules a reload of every subscription whose query c may affect.
func (h *Hub[T]) Notify(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.query.Affected(c) {
			select {
			case sub.dirty <- struct{}{}:
			default:
			}
		}
	}
}

// Run forwards changes from the broker to Notify until ctx ends.
func (h *Hub[T]) Run(ctx context.Context, broker Broker) error {
	changes, err := broker.Listen(ctx)
	if err != nil {
		return err
	}

	for change := range changes {
		h.Notify(change)
	}
	return nil
}

// Len returns the number of open subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type Subscription[T any] struct {
	query   Query
	updates chan Snapshot[T]
	errs    chan error
	dirty   chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
}

// Updates delivers snapshots. A slow reader only sees the latest one. The
// channel is closed after Close.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Errors delivers the latest load failure. The subscription keeps running.
func (s *Subscription[T]) Errors() <-chan error {
	return s.errs
}

// Done is closed once the subscription has stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) Query() Query {
	return s.query
}

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

// Offer replaces any undelivered value in ch with v. ch must have capacity 1
// and a single sender.
func Offer[V any](ch chan V, v V) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
