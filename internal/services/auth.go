package services

import (
	"context"
	"fmt"
	"time"

	"uninews/internal/logger"
	"uninews/internal/models"
	"uninews/internal/utils"

	"go.uber.org/zap"
)

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
}

func (s *AuthService) RegisterUser(ctx context.Context, input *models.User, plainPassword string) error {
	logger.Log.Info("Регистрация пользователя (service)", zap.String("username", input.Username), zap.String("email", input.Email))
	if exists, err := s.repo.IsUsernameTaken(ctx, input.Username); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки username", zap.Error(err))
		}
		return fmt.Errorf("%w: имя пользователя уже занято", ErrValidation)
	}
	if exists, err := s.repo.IsEmailTaken(ctx, input.Email); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки email", zap.Error(err))
		}
		return fmt.Errorf("%w: адрес электронной почты уже зарегистрирован", ErrValidation)
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return err
	}

	input.PasswordHash = hashed
	// Роль всегда user — админов назначают руками в базе.
	input.Role = "user"

	if err := s.repo.CreateUser(ctx, input); err != nil {
		logger.Log.Error("Ошибка создания пользователя", zap.Error(err))
		return err
	}
	logger.Log.Info("Пользователь зарегистрирован (service)", zap.String("username", input.Username))
	return nil
}

// LoginUser возвращает access-токен и пользователя — из него хендлер собирает
// клиентский маркер сессии {u_id, display_name, role}.
func (s *AuthService) LoginUser(
	ctx context.Context,
	username, password, jwtSecret string,
	accessTTL time.Duration,
) (string, *models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("username", username))
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("username", username), zap.Error(err))
		return "", nil, fmt.Errorf("%w: пользователь не найден", ErrNotAllowed)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("username", username))
		return "", nil, fmt.Errorf("%w: неверный пароль", ErrNotAllowed)
	}

	accessToken, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, accessTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации access-токена", zap.Error(err))
		return "", nil, err
	}

	logger.Log.Info("Вход выполнен (service)", zap.String("username", username))
	return accessToken, user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	logger.Log.Debug("Профиль пользователя (service)", zap.Int("user_id", userID))
	return s.repo.GetUserByID(ctx, userID)
}
