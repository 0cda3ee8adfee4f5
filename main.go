package main

import (
	"log"
	"time"

	api "github.com/Zer-0ne/secufi-backend/cmd/api"
	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	analysisRepo "github.com/Zer-0ne/secufi-backend/internal/analysis/repository"
	analysisUsecase "github.com/Zer-0ne/secufi-backend/internal/analysis/usecase"
	identitydomain "github.com/Zer-0ne/secufi-backend/internal/identity/domain"
	identityRepo "github.com/Zer-0ne/secufi-backend/internal/identity/repository"
	"github.com/Zer-0ne/secufi-backend/pkg/ai"
	"github.com/Zer-0ne/secufi-backend/pkg/config"
	"github.com/Zer-0ne/secufi-backend/pkg/database"
	"github.com/Zer-0ne/secufi-backend/pkg/extractor"
	"github.com/Zer-0ne/secufi-backend/pkg/gmail"
	"github.com/Zer-0ne/secufi-backend/pkg/imap"
	"github.com/Zer-0ne/secufi-backend/pkg/queue"
)

const interMessageDelay = 2 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&identitydomain.User{},
		&analysisdomain.FinancialRecord{},
		&analysisdomain.RawDocument{},
		&analysisdomain.ProcessedDocument{},
		&analysisdomain.AnalysisThrottle{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := identityRepo.NewUserRepository(db)
	recordRepo := analysisRepo.NewFinancialRecordRepository(db)
	documentRepo := analysisRepo.NewDocumentRepository(db)
	throttleRepo := analysisRepo.NewThrottleRepository(db)

	// Mail provider: Gmail API when OAuth is configured, IMAP otherwise
	var provider analysisUsecase.MailProvider
	if cfg.GoogleClientID != "" {
		gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
		provider = analysisUsecase.NewGmailProvider(gmailService)
		log.Printf("[Main] Using Gmail mail provider")
	} else {
		imapService := imap.NewService(cfg.IMAPHost, cfg.IMAPPort)
		provider = analysisUsecase.NewIMAPProvider(imapService)
		log.Printf("[Main] Using IMAP mail provider (%s:%s)", cfg.IMAPHost, cfg.IMAPPort)
	}

	// Initialize reasoning service
	aiService, err := ai.NewReasoningService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiApiKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize reasoning service:", err)
	}
	log.Printf("[Main] Reasoning service initialized with provider: %s", cfg.AIProvider)

	// One shared call gate for every reasoning call
	callQueue := queue.New(cfg.QueueConcurrency, time.Duration(cfg.QueueIntervalMs)*time.Millisecond, cfg.QueueIntervalCap)

	// Format extractor with the external decoder subprocess
	subprocess := extractor.NewSubprocess(cfg.ExtractorPython, cfg.ExtractorScript)
	if !subprocess.Available() {
		log.Printf("[Main] Decoder script %s not found, in-process fallbacks only", cfg.ExtractorScript)
	}
	formatExtractor := extractor.NewService(subprocess)

	// Pipeline components
	classifier := analysisUsecase.NewMessageClassifier(aiService, callQueue)
	structured := analysisUsecase.NewStructuredExtractor(aiService, callQueue)

	analysisUc := analysisUsecase.NewAnalysisUsecase(
		userRepo,
		recordRepo,
		documentRepo,
		throttleRepo,
		provider,
		classifier,
		structured,
		formatExtractor,
		interMessageDelay,
	)

	// Initialize HTTP handler
	handler := api.NewHandler(analysisUc, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
