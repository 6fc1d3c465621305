package main

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/ktvs/internal/app"
)

// @title           KTVS API
// @version         1.0
// @description     KTVS issues and verifies TOTP credentials, coupons, subscriptions and QR codes.
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	if err := app.New().Run(); err != nil {
		slog.Error("application exited", "error", err)
		os.Exit(1)
	}
}
