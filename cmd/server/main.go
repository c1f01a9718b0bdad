package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/cristobal22/comanda/internal/server"
	"github.com/cristobal22/comanda/internal/server/config"
)

func main() {

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
