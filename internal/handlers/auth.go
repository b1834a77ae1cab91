package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"uninews/internal/config"
	"uninews/internal/logger"
	"uninews/internal/middleware"
	"uninews/internal/models"
	"uninews/internal/services"
	helpers "uninews/internal/utils/helpers"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string               `json:"access_token"`
	User        models.SessionMarker `json:"user"`
}

// Register godoc
// @Summary Зарегистрировать пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные пользователя"
// @Success 201 {string} string "Пользователь создан"
// @Failure 400 {string} string "Ошибка запроса"
// @Router /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger.Log.Info("Запрос на регистрацию")
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Невалидный JSON при регистрации", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	user := &models.User{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}

	if err := h.authService.RegisterUser(r.Context(), user, req.Password); err != nil {
		logger.Log.Warn("Ошибка регистрации", zap.Error(err))
		serviceError(w, err)
		return
	}

	logger.Log.Info("Пользователь зарегистрирован", zap.String("username", req.Username))
	helpers.JSON(w, http.StatusCreated, "Пользователь создан")
}

// Login godoc
// @Summary Вход
// @Description Возвращает access-токен и маркер сессии {u_id, display_name, role} для клиента
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Логин и пароль"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "Неверные данные"
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger.Log.Info("Запрос на вход")
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Невалидный JSON при входе", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	accessTTL, err := time.ParseDuration(h.cfg.AccessTokenTTL)
	if err != nil {
		accessTTL = 15 * time.Minute
	}

	token, user, err := h.authService.LoginUser(r.Context(), req.Username, req.Password, h.cfg.JWTSecret, accessTTL)
	if err != nil {
		logger.Log.Warn("Ошибка входа", zap.String("username", req.Username), zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		User: models.SessionMarker{
			UID:         user.ID,
			DisplayName: user.DisplayName,
			Role:        user.Role,
		},
	})
}

// Profile godoc
// @Summary Профиль текущего пользователя
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {string} string "Нет аутентификации"
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет аутентификации")
		return
	}

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения профиля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Ошибка получения профиля")
		return
	}

	helpers.JSON(w, http.StatusOK, user)
}
