package main

import (
	"log"
	"os"

	"github.com/conceptforge/concept-api/internal/config"
)

func main() {
	config.LoadDotEnv()

	if err := newRootCommand(config.NewViper()).Execute(); err != nil {
		log.Printf("concept-api exited with error: %v", err)
		os.Exit(1)
	}
}
