package main

import (
	"os"

	"github.com/yigit/crms/internal/pkg/logger"
	"github.com/yigit/crms/internal/server"
)

// @title CRMS API
// @version 1.0
// @description Class Record Management System: courses, sections, syllabi, assessments, grades, attendance and analytics

// @contact.name API Support
// @contact.email support@crms.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization, as "Bearer <token>"

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
