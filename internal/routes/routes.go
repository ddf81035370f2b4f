package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/furkanYanteri1/squadz-site/internal/config"
	"github.com/furkanYanteri1/squadz-site/internal/handlers"
	"github.com/furkanYanteri1/squadz-site/internal/hub"
	"github.com/furkanYanteri1/squadz-site/internal/middleware"
	"github.com/furkanYanteri1/squadz-site/internal/service/auth"
	"github.com/furkanYanteri1/squadz-site/internal/service/feed"
	"github.com/furkanYanteri1/squadz-site/internal/service/follows"
	"github.com/furkanYanteri1/squadz-site/internal/service/invites"
	"github.com/furkanYanteri1/squadz-site/internal/service/users"
)

// List of all route registration functions
var routeModules = []func(*mux.Router, *config.Config, *hub.Hub){
	registerAuthRoutes,
	registerUserRoutes,
	registerFeedRoutes,
	registerFollowRoutes,
	registerInviteRoutes,
	registerWebSocketRoutes,
}

// RegisterAllRoutes assembles the router from every route module.
func RegisterAllRoutes(cfg *config.Config, feedHub *hub.Hub) *mux.Router {
	router := mux.NewRouter()

	for _, register := range routeModules {
		register(router, cfg, feedHub)
	}

	return router
}

func registerAuthRoutes(router *mux.Router, cfg *config.Config, _ *hub.Hub) {
	authService := auth.NewAuthService(cfg.JWTSecret)
	profileService := users.NewProfileService(cfg.SuperuserEmail)
	authHandler := handlers.NewAuthHandler(authService, profileService)

	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Use(middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	publicRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
}

func registerUserRoutes(router *mux.Router, cfg *config.Config, _ *hub.Hub) {
	profileService := users.NewProfileService(cfg.SuperuserEmail)

	protectedRouter := router.PathPrefix("/api").Subrouter()
	protectedRouter.Use(middleware.Auth(cfg.JWTSecret), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("/me", profileService.GetCurrentUser).Methods(http.MethodGet)
}

func registerFeedRoutes(router *mux.Router, cfg *config.Config, feedHub *hub.Hub) {
	feedService := feed.NewFeedService(feedHub)

	// Listing is public; signed-in callers get the following mode.
	listRouter := router.PathPrefix("/api/posts").Subrouter()
	listRouter.Use(middleware.OptionalAuth(cfg.JWTSecret), middleware.ResponseWrapperMiddleware)
	listRouter.HandleFunc("", feedService.ListPosts).Methods(http.MethodGet)

	postRouter := router.PathPrefix("/api/posts").Subrouter()
	postRouter.Use(middleware.Auth(cfg.JWTSecret), middleware.ResponseWrapperMiddleware)
	postRouter.HandleFunc("", feedService.CreatePost).Methods(http.MethodPost)
}

func registerFollowRoutes(router *mux.Router, cfg *config.Config, _ *hub.Hub) {
	followService := follows.NewFollowService()

	protectedRouter := router.PathPrefix("/api/follows").Subrouter()
	protectedRouter.Use(middleware.Auth(cfg.JWTSecret), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("", followService.ListFollows).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", followService.Follow).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{team_id}", followService.Unfollow).Methods(http.MethodDelete)
}

func registerInviteRoutes(router *mux.Router, cfg *config.Config, _ *hub.Hub) {
	inviteService := invites.NewInviteService(cfg)

	publicRouter := router.PathPrefix("/api/invite").Subrouter()
	publicRouter.Use(middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("", inviteService.CreateInvite).Methods(http.MethodPost)
	publicRouter.HandleFunc("/{id}", inviteService.GetInvite).Methods(http.MethodGet)
	publicRouter.HandleFunc("/{id}/accept", inviteService.AcceptInvite).Methods(http.MethodPost)
}

func registerWebSocketRoutes(router *mux.Router, _ *config.Config, feedHub *hub.Hub) {
	wsHandler := handlers.NewWebSocketHandler(feedHub)
	router.HandleFunc("/ws/feed", wsHandler.HandleFeed).Methods(http.MethodGet)
}
