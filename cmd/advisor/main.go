package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/pethealthai/advisor/internal/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cmd.Execute()
}
