package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/api"
	"github.com/mpiyush15/pixels-official-sub001/internal/cache"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/email"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/storage"
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		fatal("failed to load configuration", "error", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(context.Background(), cfg)
	if err != nil {
		fatal("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			slog.Error("error disconnecting from MongoDB", "error", err)
		}
	}()
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := services.EnsureIndexes(indexCtx, mongoDb); err != nil {
		cancelIndex()
		fatal("failed to ensure indexes", "error", err)
	}
	cancelIndex()
	txRunner := db.NewTxRunner(mongoClient, cfg.MongoTransactions)
	slog.Info("multi-document writes configured", "transactional", txRunner.Transactional())

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(context.Background(), cfg)
	if err != nil {
		fatal("failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			slog.Error("error disconnecting from Redis", "error", err)
		}
	}()

	// Initialize Email Sender
	var primaryEmailSender email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		slog.Info("MOCK_SERVICES enabled: using Redis email sender")
		primaryEmailSender = email.NewRedisSender(redisClient, cfg)
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)
	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(logEmailsPath)
		if err != nil {
			slog.Warn("failed to initialize file email sender, proceeding without it", "path", logEmailsPath, "error", err)
		} else {
			compositeSender.AddSender(fileSender)
			slog.Info("file email logger enabled", "path", logEmailsPath)
		}
	}

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		fatal("failed to initialize S3 storage", "error", err)
	}

	// Root context cancelled on shutdown; long-lived goroutines hang off it.
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Initialize Services
	settingsService := services.NewSettingsService(mongoDb, cfg, redisClient)
	go func() {
		if err := settingsService.SubscribeToChanges(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("settings subscription stopped", "error", err)
		}
	}()
	invoiceService := services.NewInvoiceService(mongoDb, cfg, s3StorageService, settingsService)
	reconcileService := services.NewReconcileService(mongoDb, cfg)
	emailTemplateService := services.NewEmailTemplateService(mongoDb)

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	dispatcher := tasks.NewDispatcher(taskClient)

	svc := api.Services{
		Payments:      services.NewPaymentService(mongoDb, cfg, txRunner, settingsService),
		Salaries:      services.NewSalaryService(mongoDb, cfg, txRunner),
		Notifications: services.NewNotificationService(mongoDb, cfg),
		Leads:         services.NewLeadService(mongoDb, txRunner),
		Submissions:   services.NewSubmissionService(mongoDb, cfg, txRunner, settingsService),
		Invoices:      invoiceService,
		Reconcile:     reconcileService,
		Settings:      settingsService,
		EmailTemplate: emailTemplateService,
		Storage:       s3StorageService,
		Dispatcher:    dispatcher,
	}

	taskProcessor := tasks.NewTaskProcessor(cfg, compositeSender, emailTemplateService, invoiceService, reconcileService, dispatcher)

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// Service API always runs
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(redisClient, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("service API listening", "port", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("service API ListenAndServe error", "error", err)
		}
		slog.Info("service API server stopped")
	}()

	var mainApiSrv *http.Server
	var worker *tasks.Worker

	slog.Info("starting application", "mode", cfg.RunMode)

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           api.SetupRouter(rootCtx, cfg, svc),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("main API listening", "port", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fatal("main API ListenAndServe error", "error", err)
			}
			slog.Info("main API server stopped")
		}()
	}

	bgMode := func() {
		// Non-blocking; stopped by the shutdown sequence below.
		worker, err = tasks.StartWorker(redisClient, cfg, taskProcessor.Mux())
		if err != nil {
			fatal("failed to start background worker", "error", err)
		}
		slog.Info("background worker started")
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		fatal("invalid run mode", "mode", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down", "signal", sig.String())
	case <-shutdownChan:
		slog.Info("shutdown requested via service API")
	}
	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		slog.Error("service API server shutdown error", "error", err)
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			slog.Error("main API server shutdown error", "error", err)
		}
	}
	if worker != nil {
		worker.Shutdown()
		slog.Info("background worker stopped")
	}

	wg.Wait()
	slog.Info("server gracefully stopped")
}
