package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"nerva/backend/internal/api"
	"nerva/backend/internal/config"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Log.Apply(); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	server, err := api.NewServer(api.ConfigFrom(cfg))
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"db":      cfg.DBPath,
		"origins": cfg.AllowedOrigins,
	}).Infof("starting nerva backend on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
