package main

import (
	"net/http"

	"github.com/furkanYanteri1/squadz-site/internal/config"
	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/hub"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/routes"
)

func main() {
	log := logger.NewLogger("squadz")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	if err := database.Init(cfg); err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	feedHub := hub.NewHub()
	go feedHub.Run()

	router := routes.RegisterAllRoutes(cfg, feedHub)

	log.Info("Server is running", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
