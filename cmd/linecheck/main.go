package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"linecheck/internal/config"
	"linecheck/internal/model"
	"linecheck/internal/notify"
	"linecheck/internal/repository"
	"linecheck/internal/server"
	"linecheck/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	identitySvc := service.NewIdentityService(userRepo)
	instanceSvc := service.NewInstanceService(instanceRepo, taskRepo, identitySvc)
	checkoutSvc := service.NewCheckoutService(checkoutRepo, taskRepo, identitySvc, auditRepo)
	batchSvc := service.NewBatchService(instanceRepo, taskRepo, checkoutSvc, identitySvc, auditRepo)
	listViewSvc := service.NewListViewService(taskRepo, instanceRepo, checkoutRepo, identitySvc)
	generatorSvc := service.NewGeneratorService(instanceRepo, taskRepo)
	reminderSvc := service.NewReminderService(taskRepo, instanceRepo)

	if cfg.AdminToken != "" {
		if err := bootstrapAdmin(ctx, userRepo, cfg.AdminToken); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if err := scheduler.ScheduleEvery(cfg.GenerateInterval, "instance-generator", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		generatorSvc.Run(jobCtx, time.Now())
	}); err != nil {
		log.Fatalf("schedule generator: %v", err)
	}

	if cfg.TelegramToken != "" && cfg.ReportsEnabled {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, locationRepo, reminderSvc)
		if err != nil {
			log.Fatalf("notifier: %v", err)
		}
		if err := scheduler.ScheduleDailyAt(cfg.ReportHour, cfg.ReportMinute, "daily-reports", func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := notifier.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[warn] report: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg.HTTPAddr, identitySvc, instanceSvc, checkoutSvc, batchSvc, listViewSvc)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Println("Linecheck portal started.")
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[warn] shutdown: %v", err)
	}
	log.Println("Shutdown complete.")
}

// bootstrapAdmin seeds a superadmin and its session token so a fresh database
// is reachable. Does nothing once any user exists.
func bootstrapAdmin(ctx context.Context, users *repository.UserRepository, token string) error {
	count, err := users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := model.User{Name: "admin", Role: model.RoleSuperadmin}
	if err := users.Create(ctx, &admin); err != nil {
		return err
	}
	if err := users.CreateSession(ctx, &model.Session{Token: token, UserID: admin.ID}); err != nil {
		return err
	}
	log.Printf("[info] bootstrapped superadmin user %d", admin.ID)
	return nil
}
