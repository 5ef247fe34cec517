package main

import (
	"context"
	"log"
	"rotation_bot/internal/modules/config"
	"rotation_bot/internal/modules/health"
	"rotation_bot/internal/modules/postgres"
	"rotation_bot/internal/runner"
	"rotation_bot/pkg/logger"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		runner.Module(),
		health.Module(),
	)
	app.Run()
}
