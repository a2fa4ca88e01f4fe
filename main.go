package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nomis/cmd"
)

func main() {
	// .env is optional; settings also come from real env vars and .nomis.yaml
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
