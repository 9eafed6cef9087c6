package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/fmuoria/resume-screener/internal/api"
	"github.com/fmuoria/resume-screener/internal/auth"
	"github.com/fmuoria/resume-screener/internal/config"
	"github.com/fmuoria/resume-screener/internal/llm"
	"github.com/fmuoria/resume-screener/internal/logging"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog := logging.Setup(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	authMgr, err := auth.NewManager(cfg.CredentialsFile, cfg.TokenFile, cfg.BackendURL+"/api/auth/callback")
	if err != nil {
		log.Fatalf("Failed to initialize Google auth: %v", err)
	}

	llmClient, err := llm.NewVertexAIClient(context.Background(), cfg.GoogleCloudProject, cfg.GoogleCloudLocation)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	defer llmClient.Close()

	server := api.NewServer(cfg, authMgr, llmClient, logger)

	fmt.Printf("Starting resume screener on port %s...\n", cfg.Port)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  GET  /api/login - Start Google login flow\n")
	fmt.Printf("  POST /api/upload-job-description - Upload job description PDF\n")
	fmt.Printf("  PUT  /api/screening-config - Set position and subject filters\n")
	fmt.Printf("  POST /api/start-screening - Run the screening pipeline\n")
	fmt.Printf("  GET  /api/results - Fetch recorded results\n")
	fmt.Printf("  GET  /api/export - Download results as Excel\n")

	if err := http.ListenAndServe(":"+cfg.Port, server.Router()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
