// Package notify defines how outcomes are reported to a user and how
// destructive actions are confirmed.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

type Notification struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type Prompt struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`
	CancelLabel  string `json:"cancelLabel"`
	Kind         Kind   `json:"kind"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Confirmer asks the user to approve a destructive action. A false result
// means the action must not run.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	event := n.log.Info()
	switch note.Kind {
	case KindError:
		event = n.log.Error()
	case KindWarning:
		event = n.log.Warn()
	}
	event.Str("kind", string(note.Kind)).Str("title", note.Title).Msg(note.Message)
}

// Recorder keeps notifications in memory, e.g. to return them in an HTTP response.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
	next  Notifier
}

// NewRecorder returns a Recorder that also forwards to next when it is not nil.
func NewRecorder(next Notifier) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Notify(ctx context.Context, note Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, note)
	r.mu.Unlock()

	if r.next != nil {
		r.next.Notify(ctx, note)
	}
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

// StaticConfirmer answers every prompt with the same decision and remembers the prompts.
type StaticConfirmer struct {
	answer bool

	mu      sync.Mutex
	prompts []Prompt
}

func NewStaticConfirmer(answer bool) *StaticConfirmer {
	return &StaticConfirmer{answer: answer}
}

func (c *StaticConfirmer) Confirm(_ context.Context, p Prompt) (bool, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, p)
	c.mu.Unlock()
	return c.answer, nil
}

func (c *StaticConfirmer) Prompts() []Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Prompt(nil), c.prompts...)
}
