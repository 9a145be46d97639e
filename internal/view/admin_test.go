package view

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/notify"
	"storyhub/internal/repository"
)

func TestNewAdminView_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "writer@storyhub.dev", models.RoleAuthor)

	_, err := NewAdminView(context.Background(), env.actions.As(author), env.articles, env.users, zerolog.Nop())
	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
	assert.Equal(t, 0, env.articles.Len())
}

func TestAdminView_StateFollowsStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "chief@storyhub.dev", models.RoleAdmin)
	author := env.user(t, "writer@storyhub.dev", models.RoleAuthor)

	env.article(t, author, "Черновик", false)
	pending := env.article(t, author, "На модерации", true)
	published := env.article(t, author, "Опубликованная", true)
	_, err := env.svc.Article.Approve(ctx, published.ID)
	require.NoError(t, err)

	recorder := notify.NewRecorder(nil)
	actions := env.actions.As(admin).With(recorder, notify.NewStaticConfirmer(true))

	v, err := NewAdminView(ctx, actions, env.articles, env.users, zerolog.Nop())
	require.NoError(t, err)
	defer v.Close()

	state := waitFor(t, v.State, func(s AdminState) bool { return s.Ready && s.Stats.TotalArticles == 3 })
	assert.Equal(t, AdminStats{TotalArticles: 3, Pending: 1, Published: 1, TotalUsers: 2}, state.Stats)
	require.Len(t, state.Partitions[models.StatusPending], 1)
	assert.Equal(t, pending.ID, state.Partitions[models.StatusPending][0].ID)
	assert.Len(t, state.Users, 2)

	approved, err := v.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, approved.Status)

	note, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.KindSuccess, note.Kind)

	state = waitFor(t, v.State, func(s AdminState) bool {
		return len(s.Partitions[models.StatusPending]) == 0 && s.Stats.Published == 2
	})
	assert.Len(t, state.Partitions[models.StatusPublished], 2)
	assert.Equal(t, state.Stats.Published, len(state.Partitions[models.StatusPublished]))

	found := v.Search(models.StatusPublished, "модерац")
	require.Len(t, found, 1)
	assert.Equal(t, pending.ID, found[0].ID)
}

func TestAdminView_Actions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "chief@storyhub.dev", models.RoleAdmin)
	author := env.user(t, "writer@storyhub.dev", models.RoleAuthor)
	pending := env.article(t, author, "Статья", true)

	t.Run("отклонение без причины", func(t *testing.T) {
		recorder := notify.NewRecorder(nil)
		confirmer := notify.NewStaticConfirmer(true)
		actions := env.actions.As(admin).With(recorder, confirmer)

		_, err := actions.Reject(ctx, pending.ID, " ")
		assert.ErrorIs(t, err, lifecycle.ErrJustificationRequired)
		assert.Empty(t, confirmer.Prompts())

		note, ok := recorder.Last()
		require.True(t, ok)
		assert.Equal(t, notify.KindError, note.Kind)
	})

	t.Run("отказ от подтверждения", func(t *testing.T) {
		recorder := notify.NewRecorder(nil)
		confirmer := notify.NewStaticConfirmer(false)
		actions := env.actions.As(admin).With(recorder, confirmer)

		_, err := actions.Reject(ctx, pending.ID, "Не по теме")
		assert.True(t, IsCancelled(err))
		assert.ErrorIs(t, err, lifecycle.ErrConfirmationRequired)
		require.Len(t, confirmer.Prompts(), 1)
		assert.Equal(t, notify.KindError, confirmer.Prompts()[0].Kind)
		assert.Empty(t, recorder.Notifications())

		stored, err := env.rep.Article.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("автор не может одобрить", func(t *testing.T) {
		recorder := notify.NewRecorder(nil)
		actions := env.actions.As(author).With(recorder, notify.NewStaticConfirmer(true))

		_, err := actions.Approve(ctx, pending.ID)
		assert.ErrorIs(t, err, lifecycle.ErrForbidden)
		note, _ := recorder.Last()
		assert.Equal(t, notify.KindError, note.Kind)
	})

	t.Run("недопустимый переход", func(t *testing.T) {
		recorder := notify.NewRecorder(nil)
		actions := env.actions.As(admin).With(recorder, notify.NewStaticConfirmer(true))

		_, err := actions.Unpublish(ctx, pending.ID)
		assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
		note, _ := recorder.Last()
		assert.Equal(t, notify.KindError, note.Kind)
	})

	t.Run("отклонение, удаление и очистка", func(t *testing.T) {
		actions := env.actions.As(admin).With(notify.NewRecorder(nil), notify.NewStaticConfirmer(true))

		rejected, err := actions.Reject(ctx, pending.ID, "Не по теме")
		require.NoError(t, err)
		assert.Equal(t, "Не по теме", rejected.RejectionReason)

		_, err = actions.Delete(ctx, pending.ID)
		require.NoError(t, err)

		restored, err := actions.Restore(ctx, pending.ID, models.StatusDraft)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, restored.Status)

		_, err = actions.Delete(ctx, pending.ID)
		require.NoError(t, err)
		require.NoError(t, actions.Purge(ctx, pending.ID))

		_, err = env.rep.Article.GetByID(ctx, pending.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("изменение роли", func(t *testing.T) {
		recorder := notify.NewRecorder(nil)
		confirmer := notify.NewStaticConfirmer(false)
		actions := env.actions.As(admin).With(recorder, confirmer)

		require.NoError(t, actions.ChangeRole(ctx, author.UserID, models.RoleEditor))
		assert.Empty(t, confirmer.Prompts())

		user, err := env.svc.User.GetUser(ctx, author.UserID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleEditor, user.Role)

		err = env.actions.As(author).ChangeRole(ctx, author.UserID, models.RoleAdmin)
		assert.ErrorIs(t, err, lifecycle.ErrForbidden)
	})

	t.Run("неизвестное действие", func(t *testing.T) {
		_, err := env.actions.As(admin).Perform(ctx, pending.ID, lifecycle.Action("publish-now"), lifecycle.Input{})
		assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)
	})
}

func TestAdminView_StaleOnLoadError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "chief@storyhub.dev", models.RoleAdmin)
	author := env.user(t, "writer@storyhub.dev", models.RoleAuthor)
	env.article(t, author, "Первая", true)

	v, err := NewAdminView(ctx, env.actions.As(admin), env.articles, env.users, zerolog.Nop())
	require.NoError(t, err)
	defer v.Close()

	waitFor(t, v.State, func(s AdminState) bool { return s.Ready && s.Stats.TotalArticles == 1 })

	env.failLoads.Store(true)
	env.article(t, author, "Вторая", true)

	// users still refresh while article loads fail
	_, err = env.svc.Auth.Register(ctx, repository.CreateUserRequest{Email: "third@storyhub.dev", Password: "secret1"})
	require.NoError(t, err)
	state := waitFor(t, v.State, func(s AdminState) bool { return s.Stats.TotalUsers == 3 })
	assert.Equal(t, 1, state.Stats.TotalArticles)
	assert.Len(t, state.Partitions[models.StatusPending], 1)

	env.failLoads.Store(false)
	env.article(t, author, "Третья", true)
	waitFor(t, v.State, func(s AdminState) bool { return s.Stats.TotalArticles == 3 })
}

func TestAdminView_CloseTearsDown(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, "chief@storyhub.dev", models.RoleAdmin)

	v, err := NewAdminView(context.Background(), env.actions.As(admin), env.articles, env.users, zerolog.Nop())
	require.NoError(t, err)
	waitFor(t, v.State, func(s AdminState) bool { return s.Ready })

	assert.Equal(t, len(AdminTabs)+1, env.articles.Len())
	assert.Equal(t, 1, env.users.Len())

	v.Close()
	v.Close()

	assert.Equal(t, 0, env.articles.Len())
	assert.Equal(t, 0, env.users.Len())

	for range v.Updates() {
	}
}
