package services

import "errors"

// Таксономия ошибок сервисного слоя. Хендлеры маппят их на HTTP-статусы
// через errors.Is, сервисы оборачивают с контекстом через %w.
var (
	ErrValidation = errors.New("некорректные данные")
	ErrNotAllowed = errors.New("доступ запрещён")
	ErrNotFound   = errors.New("не найдено")
	ErrUpstream   = errors.New("ошибка внешнего сервиса")
)
