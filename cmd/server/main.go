package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/config"
	"github.com/mamadbah2/stockreport/internal/plugin/stockeventreport"
	"github.com/mamadbah2/stockreport/internal/repository/mongodb"
	"github.com/mamadbah2/stockreport/internal/repository/sheets"
	"github.com/mamadbah2/stockreport/internal/scheduler"
	"github.com/mamadbah2/stockreport/internal/server/handlers"
	"github.com/mamadbah2/stockreport/internal/server/router"
	notificationsvc "github.com/mamadbah2/stockreport/internal/service/notification"
	reportingsvc "github.com/mamadbah2/stockreport/internal/service/reporting"
	"github.com/mamadbah2/stockreport/pkg/clients/gotenberg"
	"github.com/mamadbah2/stockreport/pkg/clients/mailer"
	whatsappclient "github.com/mamadbah2/stockreport/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockreport/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		baseLogger.Warn("redis unavailable, recent notification checks will fail open", zap.Error(err))
	}

	pdfClient := gotenberg.NewClient(cfg.Reporting.GotenbergURL)
	if err := pdfClient.Ping(context.Background()); err != nil {
		baseLogger.Warn("gotenberg unavailable, pdf templates will fail to render", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(mongoRepo, pdfClient, cfg.Server.PublicBaseURL, baseLogger.Named("svc.reporting"))
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingSvc.SetLedger(sheets.NewReportLedger(sheetsRepo))
		baseLogger.Info("google sheets report ledger enabled")
	}

	var channels []notificationsvc.Channel
	if cfg.WhatsApp.Enabled() {
		channels = append(channels, notificationsvc.NewWhatsAppChannel(whatsappclient.NewClient(cfg.WhatsApp)))
		baseLogger.Info("whatsapp notifications enabled")
	}
	if cfg.SMTP.Enabled() {
		channels = append(channels, notificationsvc.NewEmailChannel(mailer.NewSMTPMailer(cfg.SMTP)))
		baseLogger.Info("email notifications enabled")
	}
	if len(channels) == 0 {
		baseLogger.Warn("no notification channel configured, notifications are only recorded")
	}

	guard := notificationsvc.NewRedisGuard(redisClient, cfg.Redis.RecentWindow)
	notifier := notificationsvc.NewService(mongoRepo, guard, channels, baseLogger.Named("svc.notification"))

	plugin := stockeventreport.New(mongoRepo, mongoRepo, mongoRepo, reportingSvc, notifier, baseLogger.Named("plugin."+stockeventreport.Slug))
	reportingSvc.RegisterContextHook(plugin)
	reportingSvc.RegisterCallback(plugin)

	engine := router.New(router.Handlers{
		Events:  handlers.NewEventHandler([]handlers.EventPlugin{plugin}, baseLogger.Named("handlers.events")),
		Plugin:  handlers.NewPluginHandler(plugin, baseLogger.Named("handlers.plugin")),
		Reports: handlers.NewReportHandler(mongoRepo, reportingSvc, baseLogger.Named("handlers.reports")),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, mongoRepo, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
