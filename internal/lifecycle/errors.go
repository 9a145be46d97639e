package lifecycle

import "errors"

var (
	ErrUnknownAction         = errors.New("неизвестное действие")
	ErrInvalidTransition     = errors.New("недопустимый переход статуса")
	ErrJustificationRequired = errors.New("требуется обоснование")
	ErrConfirmationRequired  = errors.New("требуется подтверждение")
	ErrInvalidTarget         = errors.New("недопустимый целевой статус")
	ErrForbidden             = errors.New("доступ запрещен")
)

// IsValidation reports whether err was raised before any store call because the
// request itself is malformed for the article's current state.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrJustificationRequired) ||
		errors.Is(err, ErrConfirmationRequired) ||
		errors.Is(err, ErrInvalidTarget)
}
