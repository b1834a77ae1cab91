package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret      string
	AccessTokenTTL string

	Log      string
	LogLevel string
	Env      string // dev|prod

	// Хранилище картинок и публичная база для ссылок на них.
	UploadDir     string
	PublicBaseURL string

	// Рендер-слой (фронт со статикой), которому шлём запросы на перегенерацию.
	RenderBaseURL string

	// Какие события пересобирают кэш последних постов: create,update,delete.
	// Исторически кэш обновлялся только на create — оставлено дефолтом.
	CacheRefreshOn   string
	LatestPostsLimit string
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: def(os.Getenv("ACCESS_TOKEN_EXPIRY"), "15m"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		UploadDir:     def(os.Getenv("UPLOAD_DIR"), "uploads"),
		PublicBaseURL: def(os.Getenv("PUBLIC_BASE_URL"), "http://localhost:8080"),

		RenderBaseURL: os.Getenv("RENDER_BASE_URL"),

		CacheRefreshOn:   def(os.Getenv("CACHE_REFRESH_ON"), "create"),
		LatestPostsLimit: def(os.Getenv("LATEST_POSTS_LIMIT"), "5"),
	}

	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		warnings = append(warnings, "JWT_SECRET is empty")
	}

	// Без рендера сервис работает, но перегенерация страниц уходит в никуда
	if c.RenderBaseURL == "" {
		warnings = append(warnings, "RENDER_BASE_URL is not set, revalidation calls will fail")
	}

	if c.Port == "" {
		warnings = append(warnings, "PORT is empty, using default 8080")
	}

	return warnings, nil
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// RefreshCacheOn сообщает, надо ли пересобирать кэш последних постов на
// указанном событии (create|update|delete).
func (c *Config) RefreshCacheOn(event string) bool {
	for _, e := range strings.Split(c.CacheRefreshOn, ",") {
		if strings.TrimSpace(strings.ToLower(e)) == event {
			return true
		}
	}
	return false
}
