package app

import (
	"uninews/internal/config"
	"uninews/internal/db"
	"uninews/internal/handlers"
	"uninews/internal/repository"
	"uninews/internal/routes"
	"uninews/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	navRepo := repository.NewNavRepository(conn)
	postRepo := repository.NewPostRepository(conn)
	metaRepo := repository.NewMetadataRepository(conn)

	// Сервисы
	storage := services.NewFileStorage(cfg)
	renderer := services.NewRenderService(cfg.RenderBaseURL)
	authService := services.NewAuthService(userRepo)
	navService := services.NewNavService(navRepo)
	postService := services.NewPostService(postRepo, navRepo, metaRepo, userRepo, storage, renderer, cfg)
	revalidateService := services.NewRevalidateService(userRepo, renderer)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, cfg)
	navHandler := handlers.NewNavHandler(navService)
	postHandler := handlers.NewPostHandler(postService)
	revalidateHandler := handlers.NewRevalidateHandler(revalidateService)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, navHandler, postHandler, revalidateHandler, cfg.UploadDir)

	return router, nil
}
