// Package lifecycle maps (current status, action, input) to the next state of an
// article. It performs no I/O; callers persist the resulting Change.
package lifecycle

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"storyhub/internal/models"
)

type Action string

const (
	ActionSubmit         Action = "submit"
	ActionResubmit       Action = "resubmit"
	ActionApprove        Action = "approve"
	ActionRequestChanges Action = "request-changes"
	ActionReject         Action = "reject"
	ActionUnpublish      Action = "unpublish"
	ActionArchive        Action = "archive"
	ActionUnarchive      Action = "unarchive"
	ActionDelete         Action = "delete"
	ActionRestore        Action = "restore"
	ActionPurge          Action = "purge"

	// Not status transitions, but subject to the same authorization policy.
	ActionCreate     Action = "create"
	ActionEdit       Action = "edit"
	ActionView       Action = "view"
	ActionChangeRole Action = "change-role"
)

// Input carries the caller-supplied parameters of a transition.
type Input struct {
	// Text is the feedback for request-changes or the reason for reject.
	Text string
	// Confirmed must be true for destructive actions.
	Confirmed bool
	// Target optionally selects the status restored by unarchive/restore.
	Target models.Status
}

// Change is the outcome of a planned transition.
type Change struct {
	Action  Action
	From    models.Status
	Article models.Article
	// Purge means the article must be removed from the store instead of updated.
	Purge bool
}

type rule struct {
	from         []models.Status
	needsText    bool
	needsConfirm bool
	apply        func(a *models.Article, in Input, now time.Time) error
}

var archivable = []models.Status{
	models.StatusDraft,
	models.StatusPending,
	models.StatusPublished,
	models.StatusRejected,
	models.StatusNeedsRevision,
}

var rules = map[Action]rule{
	ActionSubmit: {
		from: []models.Status{models.StatusDraft},
		apply: func(a *models.Article, _ Input, _ time.Time) error {
			a.Status = models.StatusPending
			return nil
		},
	},
	ActionResubmit: {
		from: []models.Status{models.StatusNeedsRevision},
		apply: func(a *models.Article, _ Input, _ time.Time) error {
			a.Status = models.StatusPending
			a.IsRevised = true
			a.RevisionNote = ""
			return nil
		},
	},
	ActionApprove: {
		from: []models.Status{models.StatusPending},
		apply: func(a *models.Article, _ Input, now time.Time) error {
			a.Status = models.StatusPublished
			a.PublishedAt = timePtr(now)
			a.IsRevised = false
			a.RevisionNote = ""
			return nil
		},
	},
	ActionRequestChanges: {
		from:      []models.Status{models.StatusPending},
		needsText: true,
		apply: func(a *models.Article, in Input, _ time.Time) error {
			a.Status = models.StatusNeedsRevision
			a.RevisionNote = strings.TrimSpace(in.Text)
			return nil
		},
	},
	ActionReject: {
		from:         []models.Status{models.StatusPending},
		needsText:    true,
		needsConfirm: true,
		apply: func(a *models.Article, in Input, _ time.Time) error {
			a.Status = models.StatusRejected
			a.RejectionReason = strings.TrimSpace(in.Text)
			return nil
		},
	},
	ActionUnpublish: {
		from:         []models.Status{models.StatusPublished},
		needsConfirm: true,
		apply: func(a *models.Article, _ Input, _ time.Time) error {
			a.Status = models.StatusDraft
			a.PublishedAt = nil
			return nil
		},
	},
	ActionArchive: {
		from:         archivable,
		needsConfirm: true,
		apply: func(a *models.Article, _ Input, now time.Time) error {
			freeze(a)
			a.Status = models.StatusArchived
			a.ArchivedAt = timePtr(now)
			return nil
		},
	},
	ActionUnarchive: {
		from: []models.Status{models.StatusArchived},
		apply: func(a *models.Article, in Input, now time.Time) error {
			target, err := restoreTarget(a, in.Target, models.StatusArchived)
			if err != nil {
				return err
			}
			a.Status = target
			a.ArchivedAt = nil
			a.PreviousStatus = ""
			thaw(a, target)
			if target == models.StatusPublished && a.PublishedAt == nil {
				a.PublishedAt = timePtr(now)
			}
			return nil
		},
	},
	ActionDelete: {
		from:         append(slices.Clone(archivable), models.StatusArchived),
		needsConfirm: true,
		apply: func(a *models.Article, _ Input, now time.Time) error {
			freeze(a)
			a.Status = models.StatusDeleted
			a.DeletedAt = timePtr(now)
			return nil
		},
	},
	ActionRestore: {
		from:         []models.Status{models.StatusDeleted},
		needsConfirm: true,
		apply: func(a *models.Article, in Input, now time.Time) error {
			target, err := restoreTarget(a, in.Target, models.StatusDeleted)
			if err != nil {
				return err
			}
			a.Status = target
			a.DeletedAt = nil
			a.PreviousStatus = ""
			if target == models.StatusArchived {
				a.ArchivedAt = timePtr(now)
				a.PreviousStatus = a.ArchivedFrom
			}
			thaw(a, target)
			if target == models.StatusPublished && a.PublishedAt == nil {
				a.PublishedAt = timePtr(now)
			}
			return nil
		},
	},
	ActionPurge: {
		from:         []models.Status{models.StatusDeleted},
		needsConfirm: true,
		apply: func(*models.Article, Input, time.Time) error {
			return nil
		},
	},
}

// freeze records where an article came from before it is archived or deleted.
// Deleting an archived article keeps the status it had before the archive so
// that restore and unarchive together lead back to it.
func freeze(a *models.Article) {
	if a.Status == models.StatusArchived {
		a.ArchivedFrom = a.PreviousStatus
	} else {
		a.HeldRevised = a.IsRevised
	}
	a.PreviousStatus = a.Status
}

// thaw brings back the revised flag of a resubmitted article returning to review.
func thaw(a *models.Article, target models.Status) {
	if target == models.StatusPending {
		a.IsRevised = a.HeldRevised
	}
}

// restoreTarget resolves the status an archived or deleted article returns to:
// the caller's choice if it is draft or the recorded prior status, otherwise the
// recorded prior status, falling back to draft.
func restoreTarget(a *models.Article, requested models.Status, leaving models.Status) (models.Status, error) {
	prior := a.PreviousStatus
	if !prior.Valid() || prior == leaving || prior == models.StatusDeleted {
		prior = models.StatusDraft
	}

	if requested == "" {
		return prior, nil
	}
	if !requested.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, requested)
	}
	if requested != models.StatusDraft && requested != prior {
		return "", fmt.Errorf("%w: %q (допустимо %q или %q)", ErrInvalidTarget, requested, models.StatusDraft, prior)
	}
	return requested, nil
}

// Transitions lists the lifecycle actions in table order.
func Transitions() []Action {
	return []Action{
		ActionSubmit, ActionResubmit, ActionApprove, ActionRequestChanges, ActionReject,
		ActionUnpublish, ActionArchive, ActionUnarchive, ActionDelete, ActionRestore, ActionPurge,
	}
}

// RequiresConfirmation reports whether the action must be confirmed by the caller.
func RequiresConfirmation(action Action) bool {
	return rules[action].needsConfirm
}

// RequiresJustification reports whether the action needs a non-empty Input.Text.
func RequiresJustification(action Action) bool {
	return rules[action].needsText
}

// Allowed reports whether action may be applied to an article in status from.
func Allowed(from models.Status, action Action) bool {
	r, ok := rules[action]
	return ok && slices.Contains(r.from, from)
}

// Available lists the transitions applicable to an article in status from.
func Available(from models.Status) []Action {
	var actions []Action
	for _, action := range Transitions() {
		if Allowed(from, action) {
			actions = append(actions, action)
		}
	}
	return actions
}

// Plan validates and computes a transition. The passed article is not modified.
func Plan(article models.Article, action Action, in Input, now time.Time) (Change, error) {
	r, ok := rules[action]
	if !ok {
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	if !slices.Contains(r.from, article.Status) {
		return Change{}, fmt.Errorf("%w: %q из статуса %q", ErrInvalidTransition, action, article.Status)
	}

	if r.needsText && strings.TrimSpace(in.Text) == "" {
		return Change{}, fmt.Errorf("%w: действие %q", ErrJustificationRequired, action)
	}

	if r.needsConfirm && !in.Confirmed {
		return Change{}, fmt.Errorf("%w: действие %q", ErrConfirmationRequired, action)
	}

	next := article
	if err := r.apply(&next, in, now); err != nil {
		return Change{}, err
	}

	change := Change{Action: action, From: article.Status, Purge: action == ActionPurge}
	if !change.Purge {
		next.UpdatedAt = now
		Normalize(&next)
	}
	change.Article = next

	return change, nil
}

// Normalize clears every status-bound field that does not belong to the
// article's current status.
func Normalize(a *models.Article) {
	if a.Status != models.StatusPending {
		a.IsRevised = false
	}
	if a.Status != models.StatusNeedsRevision {
		a.RevisionNote = ""
	}
	if a.Status != models.StatusRejected {
		a.RejectionReason = ""
	}
	if a.Status != models.StatusArchived {
		a.ArchivedAt = nil
	}
	if a.Status != models.StatusDeleted {
		a.DeletedAt = nil
	}
	switch a.Status {
	case models.StatusPublished, models.StatusArchived, models.StatusDeleted:
	default:
		a.PublishedAt = nil
	}
	if a.Status != models.StatusDeleted {
		a.ArchivedFrom = ""
	}
	if a.Status != models.StatusArchived && a.Status != models.StatusDeleted {
		a.PreviousStatus = ""
		a.HeldRevised = false
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
