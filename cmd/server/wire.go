// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"afyaclinic_backend/internal/app"
	"afyaclinic_backend/internal/auth"
	"afyaclinic_backend/internal/config"
	"afyaclinic_backend/internal/mail"
	"afyaclinic_backend/internal/platform/database"
	"afyaclinic_backend/internal/platform/logger"
	"afyaclinic_backend/internal/shared"
	"afyaclinic_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		provideCleanup,

		// Token and mail services
		auth.NewJWTService,
		mail.NewSMTPSender,

		// Core Account Services
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),

		// OAuth workflow
		auth.NewOAuthService,

		// Handlers
		auth.NewHandler,
		user.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
