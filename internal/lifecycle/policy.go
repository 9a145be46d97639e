package lifecycle

import (
	"fmt"

	"storyhub/internal/identity"
	"storyhub/internal/models"
)

// IsAuthorized decides whether actor may perform action on article. The
// decision depends only on the actor's role and ownership of the article.
// article may be nil for actions that are not bound to one (create, change-role).
func IsAuthorized(actor identity.Identity, action Action, article *models.Article) bool {
	if action == ActionView && article != nil && article.Status == models.StatusPublished {
		return true
	}

	if !actor.Authenticated() {
		return false
	}

	owner := article != nil && article.AuthorID == actor.UserID
	writer := actor.Role == models.RoleAuthor || actor.Role == models.RoleEditor || actor.Role == models.RoleAdmin

	switch action {
	case ActionCreate:
		return writer

	case ActionEdit, ActionSubmit, ActionResubmit:
		return owner && writer

	case ActionArchive, ActionUnarchive, ActionDelete:
		return owner || actor.IsAdmin()

	case ActionApprove, ActionRequestChanges, ActionReject, ActionUnpublish,
		ActionRestore, ActionPurge, ActionChangeRole:
		return actor.IsAdmin()

	case ActionView:
		return owner || actor.IsAdmin()
	}

	return false
}

// Authorize is IsAuthorized returning ErrForbidden on refusal.
func Authorize(actor identity.Identity, action Action, article *models.Article) error {
	if IsAuthorized(actor, action, article) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrForbidden, action)
}
