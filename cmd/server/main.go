package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/reminisce-ai/reminisce/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := server.Bootstrap()
	defer func() {
		if err := srv.Stores.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	r := srv.SetupRouter()

	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
