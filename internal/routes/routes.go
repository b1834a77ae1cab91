package routes

import (
	"net/http"

	"uninews/internal/handlers"
	"uninews/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	navHandler *handlers.NavHandler,
	postHandler *handlers.PostHandler,
	revalidateHandler *handlers.RevalidateHandler,
	uploadDir string,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	// Статика загруженных обложек
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	// Навигация публична, но админ с токеном видит admin_only-вкладки.
	api.Handle("/nav", middleware.JWTAuthOptional(http.HandlerFunc(navHandler.ListTabs))).Methods("GET")
	api.Handle("/nav/watch", middleware.JWTAuthOptional(http.HandlerFunc(navHandler.WatchTabs))).Methods("GET")

	api.HandleFunc("/home", postHandler.HomePosts).Methods("GET")
	api.HandleFunc("/tabs/{slug}/posts", postHandler.ListByTab).Methods("GET")
	api.HandleFunc("/posts/{slug}", postHandler.GetPostBySlug).Methods("GET")
	api.HandleFunc("/posts/{slug}/related", postHandler.RelatedPosts).Methods("GET")

	// Перегенерация: userId проверяется по базе внутри сервиса,
	// поэтому маршруты не требуют JWT.
	api.HandleFunc("/revalidate/home", revalidateHandler.Home).Methods("GET")
	api.HandleFunc("/revalidate/research", revalidateHandler.Research).Methods("GET")
	api.HandleFunc("/revalidate/posts", revalidateHandler.Post).Methods("POST")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole("admin"))
	admin.HandleFunc("/tabs", navHandler.CreateTab).Methods("POST")
	admin.HandleFunc("/tabs/{id:[0-9]+}", navHandler.UpdateTab).Methods("PATCH")
	admin.HandleFunc("/tabs/{id:[0-9]+}", navHandler.DeleteTab).Methods("DELETE")
	admin.HandleFunc("/tabs/{id:[0-9]+}/sections", navHandler.AddSection).Methods("POST")
	admin.HandleFunc("/tabs/{id:[0-9]+}/sections/{index:[0-9]+}", navHandler.UpdateSection).Methods("PATCH")
	admin.HandleFunc("/tabs/{id:[0-9]+}/sections/{index:[0-9]+}", navHandler.DeleteSection).Methods("DELETE")

	admin.HandleFunc("/posts", postHandler.AdminListPosts).Methods("GET")
	admin.HandleFunc("/posts", postHandler.CreatePost).Methods("POST")
	admin.HandleFunc("/posts/{id:[0-9]+}", postHandler.UpdatePost).Methods("PATCH")
	admin.HandleFunc("/posts/{id:[0-9]+}", postHandler.DeletePost).Methods("DELETE")
}
