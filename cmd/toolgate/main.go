package main

import (
	"errors"
	"log"

	"github.com/aussiebroadwan/toolgate/internal/gate/app"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			log.Fatalf("credential store unavailable: %v", err)
		}
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
