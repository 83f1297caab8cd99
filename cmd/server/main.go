package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/service"
	appwf "github.com/dentalworks/labflow/internal/application/workflow"
	"github.com/dentalworks/labflow/internal/config"
	"github.com/dentalworks/labflow/internal/infrastructure/external/audit"
	"github.com/dentalworks/labflow/internal/infrastructure/external/directory"
	"github.com/dentalworks/labflow/internal/infrastructure/external/inventory"
	"github.com/dentalworks/labflow/internal/infrastructure/external/invoicing"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/repository"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/dentalworks/labflow/internal/interfaces/http"
	"github.com/dentalworks/labflow/internal/metrics"
	"github.com/dentalworks/labflow/internal/report"
	"github.com/dentalworks/labflow/internal/worker"
	"github.com/dentalworks/labflow/pkg/database"
	"github.com/dentalworks/labflow/pkg/utils"
)

func main() {
	// Load .env overrides if present
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting dental lab workflow system",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Create necessary directories
	if err := os.MkdirAll(cfg.Lab.ReportOutputDir, 0755); err != nil {
		logger.Fatal("Failed to create report directory", zap.Error(err))
	}

	// Initialize database
	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	// Run migrations
	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	// Initialize repositories
	caseRepo := repository.NewCaseRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	sequenceRepo := repository.NewSequenceRepository(db, logger)

	// Initialize collaborators
	doctors := directory.NewDoctorDirectory(db, logger)
	stock := inventory.NewService(db, logger)
	auditLog := audit.NewLogger(db, logger)
	invoices := invoicing.NewNotifier(db, logger)
	recorder := metrics.NewRecorder()

	// Initialize transition engine
	engine := appwf.NewEngine(caseRepo, historyRepo, db, logger,
		appwf.WithInvoiceNotifier(invoices),
		appwf.WithAuditLogger(auditLog),
		appwf.WithTransitionRecorder(recorder),
	)

	// Initialize application services
	numbers := service.NewCaseNumberService(sequenceRepo, cfg.Lab.CaseNumberPrefix)
	cases := service.NewCaseService(caseRepo, historyRepo, numbers, doctors, auditLog, logger,
		service.WithCreationRecorder(recorder))
	cadService := service.NewCADService(caseRepo, auditLog, logger)
	camService := service.NewCAMService(caseRepo, stock, db, auditLog, logger)
	finishingService := service.NewFinishingService(caseRepo, auditLog, logger)
	removableService := service.NewRemovableService(caseRepo, auditLog, logger)
	qcService := service.NewQCService(caseRepo, engine, auditLog, logger)
	archive := report.NewArchive(cfg.Lab.ReportOutputDir, logger)
	exporter := report.NewAccountingExporter(cases, archive, logger)

	// Initialize HTTP server
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpapi.Services{
		Cases:     cases,
		Engine:    engine,
		CAD:       cadService,
		CAM:       camService,
		Finishing: finishingService,
		Removable: removableService,
		QC:        qcService,
		Reports:   exporter,
		Doctors:   doctors,
		Inventory: stock,
	}, logger)

	// Start background workers
	workers := worker.NewManager(logger)
	workers.Register(worker.NewOverduePoller(caseRepo, auditLog, time.Hour, logger))
	if err := workers.StartAll(context.Background()); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	workers.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
