package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/controllers"
	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	apiv1 "github.com/Vortex-Hub-Tech/agendamento/internal/api/v1"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/appointments"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/billing"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/branding"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/cache"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/database"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/devices"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/entitlements"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/feedback"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/jobqueue"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/moderation"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/notification"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/objectstore"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/reports"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/router"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/verification"
)

func main() {
	env.SetupEnvFile()
	if err := logger.Init(logger.Config{
		Level:       env.GetEnv("LOG_LEVEL", "info"),
		Environment: env.GetEnv("APP_ENV", "dev"),
		ServiceName: "agendamento",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	metrics.Register()

	if err := database.SetupDatabase(); err != nil {
		log.Fatal("database setup failed", zap.Error(err))
	}
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app, manager := NewApplication()
	manager.Start()

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		log.Info("listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	manager.Stop()
}

// NewApplication wires repositories, services and background workers into a fiber app.
func NewApplication() (*fiber.App, *jobqueue.Manager) {
	log := logger.L()
	db := database.GetDB()
	repos := repository.GetGlobalRepositories()
	redisClient := cache.GetClient()

	plans := entitlements.NewResolverFromDB(db, entitlements.NewRedisPlanCache(redisClient, env.GetDuration("PLAN_CACHE_TTL", 5*time.Minute)))

	// notifications
	smsSender := notification.NewSMSSender(notification.NewSMSClient(env.GetEnv("SMS_GATEWAY_URL", "")), repos.Integration, repos.SMSLog)
	fcm, err := notification.NewFCMProviderFromFile(env.GetEnv("FCM_URL", ""), env.GetEnv("FCM_CREDENTIALS_FILE", ""))
	if err != nil {
		log.Warn("FCM disabled", zap.Error(err))
		fcm = notification.NewFCMProvider("", "", nil)
	}
	pusher := notification.NewPusher(repos.PushToken,
		notification.NewExpoProvider(env.GetEnv("EXPO_PUSH_URL", ""), env.GetEnv("EXPO_ACCESS_TOKEN", "")),
		fcm,
	)
	queue := jobqueue.NewQueue(redisClient, jobqueue.NewNotificationProcessor(smsSender, pusher, repos.PushToken), env.GetInt("JOB_QUEUE_WORKERS", 3))
	dispatcher := notification.NewDispatcher(queue, plans)
	manager := jobqueue.InitManager(jobqueue.ManagerConfig{
		Queue:        queue,
		Sweeper:      jobqueue.NewReminderSweeper(repos.Tenant, repos.Appointment, dispatcher),
		ReminderHour: env.GetInt("REMINDER_SWEEP_HOUR", jobqueue.DefaultReminderHour),
	})

	// object storage is optional; logo upload and export answer 503 without it
	var store objectstore.Store
	s3cfg, err := objectstore.LoadConfig()
	switch {
	case err != nil:
		log.Warn("object storage disabled", zap.Error(err))
	case s3cfg.Enabled:
		client, err := objectstore.NewClient(s3cfg)
		if err != nil {
			log.Warn("object storage disabled", zap.Error(err))
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.EnsureBucket(ctx, env.IsDev()); err != nil {
			log.Warn("object storage bucket check failed", zap.Error(err))
		}
		cancel()
		store = client
	}

	deviceSvc := devices.NewServiceFromDB(db)

	ctl := &controllers.Controllers{
		Health: controllers.NewHealthController(map[string]controllers.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"cache": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
		Plan:    controllers.NewPlanController(repos.Plan, plans),
		Tenant:  controllers.NewTenantController(repos.Tenant, branding.NewService(repos.Tenant, store)),
		Service: controllers.NewServiceController(repos.Service),
		Appointment: controllers.NewAppointmentController(
			appointments.NewService(repos.Appointment, repos.Service, repos.Chat, dispatcher)),
		Feedback:     controllers.NewFeedbackController(feedback.NewService(feedback.NewRepository(db), moderation.Default())),
		Device:       controllers.NewDeviceController(deviceSvc, repos.PushToken),
		Verification: controllers.NewVerificationController(verification.NewService(repos.ValidationCode, smsSender)),
		SMSLog:       controllers.NewSMSLogController(repos.SMSLog),
		Analytics: controllers.NewAnalyticsController(
			reports.NewService(repos.Appointment, repos.SMSLog, store, cache.JSONStore{})),
		Billing: controllers.NewBillingController(billing.NewServiceFromDB(db, plans, env.GetEnv("PAYMENT_WEBHOOK_TOKEN", ""))),
	}

	app := fiber.New(fiber.Config{
		AppName:   "agendamento",
		BodyLimit: 8 * 1024 * 1024,
	})
	app.Use(recover.New(), requestid.New(requestid.Config{Generator: uuid.NewString}), logger.Middleware(), metrics.Middleware())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: env.GetEnv("OPENAPI_FILE", "./docs/v1/openapi.yml"),
		Path:     "v1",
	}))

	// ROUTER
	server := &apiv1.APIServer{
		Controllers: ctl,
		Tenants:     repos.Tenant,
		Plans:       plans,
		Owners:      deviceSvc,
		AdminSecret: env.GetEnv("ADMIN_JWT_SECRET", ""),
	}
	var limiterStorage fiber.Storage
	if env.GetBool("RATE_LIMIT_REDIS", true) {
		limiterStorage = cache.NewFiberStorage(cache.LimiterDatabase)
	}
	router.InstallRouter(app, router.NewApiRouter(server, router.LimiterConfig{
		Max:        env.GetInt("RATE_LIMIT_MAX", 120),
		Expiration: env.GetDuration("RATE_LIMIT_WINDOW", time.Minute),
		Storage:    limiterStorage,
	}))

	return app, manager
}
