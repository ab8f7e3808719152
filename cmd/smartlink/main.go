package main

import (
	"log"

	"github.com/Joaobneto1/Redirect-Offer/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ smartlink failed to start: %v", err)
	}
}
