package main

import (
	"log"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/bootstrap"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/config"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
