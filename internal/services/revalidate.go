package services

import (
	"context"
	"fmt"
	"strings"

	"uninews/internal/logger"

	"go.uber.org/zap"
)

// RevalidateService — ручная перегенерация статических страниц. Клиент
// передаёт только userId; он не является учётными данными, поэтому роль
// всегда перечитывается из базы перед обращением к рендер-слою.
type RevalidateService struct {
	users    UserProvider
	renderer Renderer
}

func NewRevalidateService(users UserProvider, renderer Renderer) *RevalidateService {
	return &RevalidateService{users: users, renderer: renderer}
}

func (s *RevalidateService) RevalidateHome(ctx context.Context, userID int) error {
	return s.request(ctx, userID, "/")
}

func (s *RevalidateService) RevalidateResearch(ctx context.Context, userID int) error {
	return s.request(ctx, userID, "/research")
}

func (s *RevalidateService) RevalidatePost(ctx context.Context, userID int, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return fmt.Errorf("%w: slug обязателен", ErrValidation)
	}
	return s.request(ctx, userID, "/posts/"+slug)
}

// request: проверка роли -> команда рендеру. Повторный вызов по тому же пути
// безопасен и даёт тот же результат.
func (s *RevalidateService) request(ctx context.Context, userID int, path string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.WithCtx(ctx).Warn("Revalidate: пользователь не найден", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("%w: пользователь не найден", ErrNotAllowed)
	}
	if user.Role != "admin" {
		logger.WithCtx(ctx).Warn("Revalidate: недостаточно прав",
			zap.Int("user_id", userID), zap.String("role", user.Role))
		return fmt.Errorf("%w: требуется роль admin", ErrNotAllowed)
	}

	if err := s.renderer.RevalidatePath(ctx, path); err != nil {
		logger.WithCtx(ctx).Error("Revalidate: рендер-слой вернул ошибку",
			zap.String("path", path), zap.Error(err))
		return err
	}

	logger.WithCtx(ctx).Info("Revalidate: страница перегенерирована", zap.String("path", path))
	return nil
}
