package main

import (
	"log"

	"audiototxt/internal/bootstrap"
)

func main() {
	if err := bootstrap.Execute(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
