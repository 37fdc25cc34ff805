// README: Command-line optimizer; runs one trip file end to end or prewarms location caches.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("flock-optimize: %v", err)
		os.Exit(1)
	}
}
