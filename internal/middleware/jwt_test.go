package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"uninews/internal/utils"
)

func TestJWTAuthOptional_Anonymous(t *testing.T) {
	var called bool
	var role any
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		role = r.Context().Value(ContextRole)
	})

	req := httptest.NewRequest("GET", "/api/nav", nil)
	JWTAuthOptional(next).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("запрос без токена должен проходить дальше")
	}
	if role != nil {
		t.Errorf("анонимный запрос не должен получать роль, получено: %v", role)
	}
}

func TestJWTAuthOptional_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	token, err := utils.GenerateToken("testsecret", 7, "admin", time.Minute)
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}

	var gotRole, gotUserID any
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotRole = r.Context().Value(ContextRole)
		gotUserID = r.Context().Value(ContextUserID)
	})

	req := httptest.NewRequest("GET", "/api/nav", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	JWTAuthOptional(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotRole != "admin" || gotUserID != 7 {
		t.Errorf("claims не попали в контекст: role=%v user_id=%v", gotRole, gotUserID)
	}
}

func TestJWTAuthOptional_BadToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	var called bool
	var role any
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		role = r.Context().Value(ContextRole)
	})

	req := httptest.NewRequest("GET", "/api/nav", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	JWTAuthOptional(next).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("негодный токен не должен блокировать публичный маршрут")
	}
	if role != nil {
		t.Errorf("негодный токен не должен давать роль, получено: %v", role)
	}
}
