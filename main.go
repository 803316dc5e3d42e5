package main

import (
	"github.com/joho/godotenv"

	"github.com/brainduel/gameserver/config"
	"github.com/brainduel/gameserver/genai"
	"github.com/brainduel/gameserver/logger"
	"github.com/brainduel/gameserver/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// GEMINI_API_KEY and friends can live in a local .env
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, relying on environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Question source
	questionSource := genai.NewClient(cfg.Gemini)
	if cfg.Gemini.APIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY not set, all games will use the reserve question set")
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, questionSource)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
