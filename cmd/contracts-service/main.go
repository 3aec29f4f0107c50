package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Taskify-udl/taskify-contracts/internal/auth"
	"github.com/Taskify-udl/taskify-contracts/internal/codes"
	"github.com/Taskify-udl/taskify-contracts/internal/config"
	"github.com/Taskify-udl/taskify-contracts/internal/db"
	"github.com/Taskify-udl/taskify-contracts/internal/export"
	httphandler "github.com/Taskify-udl/taskify-contracts/internal/http"
	"github.com/Taskify-udl/taskify-contracts/internal/http/middleware"
	"github.com/Taskify-udl/taskify-contracts/internal/logger"
	"github.com/Taskify-udl/taskify-contracts/internal/notify"
	"github.com/Taskify-udl/taskify-contracts/internal/repository"
	"github.com/Taskify-udl/taskify-contracts/internal/service"
	"github.com/Taskify-udl/taskify-contracts/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	m := metrics.New("taskify_contracts")

	contractRepo := repository.NewContractRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	codeGen := codes.NewGenerator()
	notifier := notify.NewInboxNotifier(notificationRepo, log)

	contractService := service.NewContractService(contractRepo, codeGen, m)
	verificationService := service.NewVerificationService(contractRepo, m)
	detectorService := service.NewDetectorService(contractRepo, notificationRepo, notifier, m, log)
	exportService := service.NewExportService(contractRepo, export.NewPDFGenerator(), export.NewExcelGenerator())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go runDetectorLoop(ctx, detectorService, cfg.Detector.Interval, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, verificationService, detectorService, exportService, notificationRepo, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Dur("detector_interval", cfg.Detector.Interval).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// runDetectorLoop is the host scheduler for the change detector: one sweep
// over all identities per tick. A cycle that overruns simply delays the next
// tick; there is no mid-cycle cancellation.
func runDetectorLoop(ctx context.Context, detector *service.DetectorService, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Debug().Msg("detector sweep")
			detector.RunAll(ctx)
		}
	}
}
