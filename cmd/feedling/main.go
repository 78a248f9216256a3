package main

import (
	"os"

	"github.com/joho/godotenv"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	// Pick up FEEDLING_* variables from a local .env when present.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
