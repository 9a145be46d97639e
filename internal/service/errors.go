package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrInvalidRole        = errors.New("неизвестная роль")
	ErrNotEditable        = errors.New("статью в архиве или корзине нельзя редактировать")
	ErrUnsupportedImage   = errors.New("неподдерживаемый формат изображения")
	ErrFileTooLarge       = errors.New("файл слишком большой")
)
