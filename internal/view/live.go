package view

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"storyhub/internal/feed"
)

// live owns the subscriptions of a view and serializes their updates.
type live struct {
	log     zerolog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	expect  int
	changed func()

	mu      sync.RWMutex
	loaded  map[string]bool
	closed  bool
	closing sync.Once
}

func newLive(ctx context.Context, log zerolog.Logger, expect int) (*live, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &live{
		log:    log,
		cancel: cancel,
		expect: expect,
		loaded: make(map[string]bool, expect),
	}, ctx
}

// ready reports whether every subscription delivered a first snapshot. mu must be held.
func (l *live) ready() bool {
	return len(l.loaded) >= l.expect
}

// watch applies every snapshot of sub under the lock and then calls changed.
// Load errors are logged and leave the last snapshot in place.
func watch[T any](l *live, name string, sub *feed.Subscription[T], apply func([]T)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer sub.Close()

		for {
			select {
			case snap, ok := <-sub.Updates():
				if !ok {
					return
				}
				l.mu.Lock()
				apply(snap.Items)
				l.loaded[name] = true
				if !l.closed {
					l.changed()
				}
				l.mu.Unlock()

			case err := <-sub.Errors():
				l.log.Error().Err(err).Str("subscription", name).Msg("Ошибка подписки, данные могут быть устаревшими")
			}
		}
	}()
}

// close stops every subscription, waits for the watchers and runs finish under the lock.
func (l *live) close(finish func()) {
	l.closing.Do(func() {
		l.cancel()
		l.wg.Wait()

		l.mu.Lock()
		l.closed = true
		finish()
		l.mu.Unlock()
	})
}
