package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/client"
	"github.com/totegamma/timepulse/internal/config"
	"github.com/totegamma/timepulse/internal/extract"
	"github.com/totegamma/timepulse/internal/infra/cache"
	"github.com/totegamma/timepulse/internal/infra/database"
	"github.com/totegamma/timepulse/internal/infra/mailer"
	"github.com/totegamma/timepulse/internal/infra/repository"
	"github.com/totegamma/timepulse/internal/present/rest"
	"github.com/totegamma/timepulse/internal/service"
	"github.com/totegamma/timepulse/internal/usecase"
)

type app struct {
	db       *gorm.DB
	rdb      *redis.Client
	usecases rest.Usecases
	reminder *usecase.ReminderUsecase
	notifier *usecase.NotificationUsecase
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(cfg.Server.PostgresDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	rdb := database.NewRedis(cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
	mc := database.NewMemcached(cfg.Server.MemcachedAddr)

	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	signal := service.NewSignalService(rdb)
	access := service.NewAccessService(tenantRepo, userRepo)
	webhook := client.New("timepulse/" + timepulse.Version)
	smtp := mailer.New(cfg.SMTP, logger.Named("mailer"))
	extractor := extract.NewExtractor(
		extract.NewRecognizer(cfg.Extract.OCRLanguages),
		cfg.Extract.MaxUploadBytes,
		logger.Named("extract"),
	)

	notificationUsecase := usecase.NewNotificationUsecase(notificationRepo, tenantRepo, signal, webhook, logger.Named("notification"), nil)
	timesheetUsecase := usecase.NewTimesheetUsecase(timesheetRepo, employeeRepo, clientRepo, userRepo, access, notificationUsecase, logger.Named("timesheet"), nil)
	invoiceUsecase := usecase.NewInvoiceUsecase(invoiceRepo, tenantRepo, clientRepo, employeeRepo, timesheetRepo, access, nil)

	reminder := usecase.NewReminderUsecase(
		tenantRepo,
		employeeRepo,
		timesheetRepo,
		userRepo,
		invoiceUsecase,
		notificationUsecase,
		smtp,
		signal,
		logger.Named("reminder"),
		usecase.ReminderOptions{
			SubmissionGraceDays: cfg.Scheduler.SubmissionGraceDays,
			ApprovalStaleDays:   cfg.Scheduler.ApprovalStaleDays,
			Concurrency:         cfg.Scheduler.Concurrency,
			DedupTTL:            cfg.Scheduler.DedupWindow(),
			PublicURL:           cfg.Server.PublicURL,
		},
		nil,
	)

	return &app{
		db:  db,
		rdb: rdb,
		usecases: rest.Usecases{
			Tenant:       usecase.NewTenantUsecase(tenantRepo, userRepo, access, nil),
			Employee:     usecase.NewEmployeeUsecase(employeeRepo, clientRepo, vendorRepo, nil),
			Client:       usecase.NewClientUsecase(clientRepo, employeeRepo, nil),
			Vendor:       usecase.NewVendorUsecase(vendorRepo, nil),
			Timesheet:    timesheetUsecase,
			Extraction:   usecase.NewExtractionUsecase(extractor, timesheetUsecase),
			Leave:        usecase.NewLeaveUsecase(leaveRepo, employeeRepo, userRepo, access, notificationUsecase, logger.Named("leave"), nil),
			Invoice:      invoiceUsecase,
			Notification: notificationUsecase,
			Dashboard:    usecase.NewDashboardUsecase(dashboardRepo, cache.NewMemcache(mc), logger.Named("dashboard")),
		},
		reminder: reminder,
		notifier: notificationUsecase,
	}, nil
}

func (a *app) Close() {
	a.notifier.Wait()
	_ = a.rdb.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
