// Package view holds the admin aggregation and author dashboard views: live
// article and user snapshots plus the lifecycle actions exposed on them.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"storyhub/internal/identity"
	"storyhub/internal/lifecycle"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/notify"
	"storyhub/internal/service"
	"storyhub/pkg/logger"
)

// ErrCancelled is returned when the user declines a confirmation prompt.
var ErrCancelled = fmt.Errorf("%w: действие отменено", lifecycle.ErrConfirmationRequired)

type outcome struct {
	success string
	failure string
}

var outcomes = map[lifecycle.Action]outcome{
	lifecycle.ActionSubmit:         {"Статья отправлена на модерацию", "Не удалось отправить статью"},
	lifecycle.ActionResubmit:       {"Исправленная статья отправлена на модерацию", "Не удалось отправить статью"},
	lifecycle.ActionApprove:        {"Статья одобрена и опубликована", "Не удалось одобрить статью"},
	lifecycle.ActionRequestChanges: {"Статья возвращена автору на доработку", "Не удалось запросить изменения"},
	lifecycle.ActionReject:         {"Статья отклонена", "Не удалось отклонить статью"},
	lifecycle.ActionUnpublish:      {"Статья снята с публикации", "Не удалось снять статью с публикации"},
	lifecycle.ActionArchive:        {"Статья перенесена в архив", "Не удалось архивировать статью"},
	lifecycle.ActionUnarchive:      {"Статья возвращена из архива", "Не удалось вернуть статью из архива"},
	lifecycle.ActionDelete:         {"Статья удалена", "Не удалось удалить статью"},
	lifecycle.ActionRestore:        {"Статья восстановлена", "Не удалось восстановить статью"},
	lifecycle.ActionPurge:          {"Статья удалена навсегда", "Не удалось удалить статью навсегда"},
	lifecycle.ActionChangeRole:     {"Роль пользователя обновлена", "Не удалось обновить роль пользователя"},
}

var missingText = map[lifecycle.Action]string{
	lifecycle.ActionRequestChanges: "Укажите замечания для автора",
	lifecycle.ActionReject:         "Укажите причину отклонения",
}

// Actions runs lifecycle actions for one actor: policy check, confirmation,
// service call, then a success or error notification.
type Actions struct {
	articles  service.ArticleService
	users     service.UserService
	notifier  notify.Notifier
	confirmer notify.Confirmer
	metrics   *metrics.Collector
	log       zerolog.Logger
	actor     identity.Identity
}

func NewActions(
	articles service.ArticleService,
	users service.UserService,
	notifier notify.Notifier,
	confirmer notify.Confirmer,
	collector *metrics.Collector,
	log zerolog.Logger,
) *Actions {
	return &Actions{
		articles:  articles,
		users:     users,
		notifier:  notifier,
		confirmer: confirmer,
		metrics:   collector,
		log:       log,
	}
}

// As returns a copy of a bound to actor.
func (a *Actions) As(actor identity.Identity) *Actions {
	bound := *a
	bound.actor = actor
	bound.log = logger.WithUserID(a.log, actor.UserID)
	return &bound
}

// With returns a copy of a that reports through notifier and asks confirmer.
func (a *Actions) With(notifier notify.Notifier, confirmer notify.Confirmer) *Actions {
	bound := *a
	bound.notifier = notifier
	bound.confirmer = confirmer
	return &bound
}

func (a *Actions) Actor() identity.Identity {
	return a.actor
}

func (a *Actions) Submit(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionSubmit, lifecycle.Input{})
}

func (a *Actions) Resubmit(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionResubmit, lifecycle.Input{})
}

func (a *Actions) Approve(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionApprove, lifecycle.Input{})
}

func (a *Actions) RequestChanges(ctx context.Context, articleID, feedback string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionRequestChanges, lifecycle.Input{Text: feedback})
}

func (a *Actions) Reject(ctx context.Context, articleID, reason string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionReject, lifecycle.Input{Text: reason})
}

func (a *Actions) Unpublish(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionUnpublish, lifecycle.Input{})
}

func (a *Actions) Archive(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionArchive, lifecycle.Input{})
}

func (a *Actions) Unarchive(ctx context.Context, articleID string, target models.Status) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionUnarchive, lifecycle.Input{Target: target})
}

func (a *Actions) Delete(ctx context.Context, articleID string) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionDelete, lifecycle.Input{})
}

func (a *Actions) Restore(ctx context.Context, articleID string, target models.Status) (*models.Article, error) {
	return a.perform(ctx, articleID, lifecycle.ActionRestore, lifecycle.Input{Target: target})
}

func (a *Actions) Purge(ctx context.Context, articleID string) error {
	_, err := a.perform(ctx, articleID, lifecycle.ActionPurge, lifecycle.Input{})
	return err
}

// Perform runs any lifecycle action by name.
func (a *Actions) Perform(ctx context.Context, articleID string, action lifecycle.Action, in lifecycle.Input) (*models.Article, error) {
	if _, ok := outcomes[action]; !ok || action == lifecycle.ActionChangeRole {
		err := fmt.Errorf("%w: %q", lifecycle.ErrUnknownAction, action)
		a.notify(ctx, notify.KindError, "Неизвестное действие")
		return nil, err
	}
	in.Confirmed = false
	return a.perform(ctx, articleID, action, in)
}

// ChangeRole sets a user's role directly. It needs no confirmation.
func (a *Actions) ChangeRole(ctx context.Context, userID string, role models.Role) error {
	action := lifecycle.ActionChangeRole
	msg := outcomes[action]

	if err := lifecycle.Authorize(a.actor, action, nil); err != nil {
		a.metrics.RecordViewAction(string(action), "forbidden")
		a.notify(ctx, notify.KindError, "Недостаточно прав для этого действия")
		return err
	}

	if err := a.users.ChangeRole(ctx, userID, role); err != nil {
		a.log.Error().Err(err).Str("target_user", userID).Msg("Ошибка изменения роли")
		a.metrics.RecordViewAction(string(action), "error")
		a.notify(ctx, notify.KindError, msg.failure)
		return err
	}

	a.metrics.RecordViewAction(string(action), "success")
	a.notify(ctx, notify.KindSuccess, msg.success)
	return nil
}

func (a *Actions) perform(ctx context.Context, articleID string, action lifecycle.Action, in lifecycle.Input) (*models.Article, error) {
	log := logger.WithArticleID(a.log, articleID)
	msg := outcomes[action]

	article, err := a.articles.Lookup(ctx, articleID)
	if err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("Статья не найдена")
		a.metrics.RecordViewAction(string(action), "error")
		a.notify(ctx, notify.KindError, msg.failure)
		return nil, err
	}

	if err := lifecycle.Authorize(a.actor, action, article); err != nil {
		a.metrics.RecordViewAction(string(action), "forbidden")
		a.notify(ctx, notify.KindError, "Недостаточно прав для этого действия")
		return nil, err
	}

	if lifecycle.RequiresJustification(action) && strings.TrimSpace(in.Text) == "" {
		a.metrics.RecordViewAction(string(action), "invalid")
		a.notify(ctx, notify.KindError, missingText[action])
		return nil, fmt.Errorf("%w: действие %q", lifecycle.ErrJustificationRequired, action)
	}

	if lifecycle.RequiresConfirmation(action) {
		ok, err := a.confirmer.Confirm(ctx, promptFor(action, article))
		if err != nil {
			log.Error().Err(err).Str("action", string(action)).Msg("Ошибка подтверждения")
			a.metrics.RecordViewAction(string(action), "error")
			a.notify(ctx, notify.KindError, msg.failure)
			return nil, err
		}
		if !ok {
			a.metrics.RecordViewAction(string(action), "cancelled")
			return nil, ErrCancelled
		}
		in.Confirmed = true
	}

	updated, err := a.articles.Transition(ctx, articleID, action, in)
	if err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("Ошибка изменения статуса")
		a.metrics.RecordViewAction(string(action), "error")
		a.notify(ctx, notify.KindError, msg.failure)
		return nil, err
	}

	a.metrics.RecordViewAction(string(action), "success")
	a.notify(ctx, notify.KindSuccess, msg.success)
	return updated, nil
}

func (a *Actions) notify(ctx context.Context, kind notify.Kind, message string) {
	if a.notifier == nil {
		return
	}
	a.notifier.Notify(ctx, notify.Notification{Kind: kind, Message: message})
}

func promptFor(action lifecycle.Action, article *models.Article) notify.Prompt {
	p := notify.Prompt{CancelLabel: "Отмена", Kind: notify.KindWarning}

	switch action {
	case lifecycle.ActionReject:
		p.Title = "Отклонить статью?"
		p.Message = "Статья будет отклонена окончательно. Это действие нельзя отменить."
		p.ConfirmLabel = "Отклонить"
		p.Kind = notify.KindError
	case lifecycle.ActionUnpublish:
		p.Title = "Снять с публикации?"
		p.Message = "Статья вернется в черновики."
		p.ConfirmLabel = "Снять"
	case lifecycle.ActionArchive:
		p.Title = "Архивировать статью?"
		p.Message = fmt.Sprintf("Статья %q будет перенесена в архив. Ее можно будет вернуть позже.", article.Title)
		p.ConfirmLabel = "В архив"
	case lifecycle.ActionDelete:
		p.Title = "Удалить статью?"
		p.Message = fmt.Sprintf("Статья %q будет перемещена в корзину.", article.Title)
		p.ConfirmLabel = "Удалить"
		p.Kind = notify.KindError
	case lifecycle.ActionRestore:
		p.Title = "Восстановить статью?"
		p.Message = fmt.Sprintf("Статья %q будет восстановлена из корзины.", article.Title)
		p.ConfirmLabel = "Восстановить"
		p.Kind = notify.KindInfo
	case lifecycle.ActionPurge:
		p.Title = "Удалить навсегда?"
		p.Message = "Статья будет безвозвратно удалена из базы. Это действие нельзя отменить."
		p.ConfirmLabel = "Удалить навсегда"
		p.Kind = notify.KindError
	default:
		p.Title = "Подтвердите действие"
		p.ConfirmLabel = "Подтвердить"
	}

	return p
}

// IsCancelled reports whether err comes from a declined confirmation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
