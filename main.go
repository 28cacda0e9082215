package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenshare-backend/config"
	"expenshare-backend/database"
	"expenshare-backend/handlers"
	"expenshare-backend/logging"
	"expenshare-backend/realtime"
	"expenshare-backend/services"
	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(log.Named("realtime"))
	var events services.Publisher = hub
	if err := database.Listen(ctx, cfg.DatabaseURL, cfg.NotifyChannel, log, hub.HandleNotification); err != nil {
		log.Warn("notify listener unavailable, realtime events stay local", zap.Error(err))
	} else {
		events = realtime.NewPGPublisher(db, cfg.NotifyChannel, hub, log)
	}

	opts := services.Options{
		Events:  events,
		OTPTTL:  cfg.OTPTTL,
		AppName: cfg.AppName,
		AppURL:  cfg.AppURL,
	}

	// Connect to Redis (optional, won't crash if unavailable)
	if rdb := database.ConnectRedis(cfg.RedisURL, log); rdb != nil {
		defer rdb.Close()
		opts.OTPs = services.NewRedisOTPStore(rdb)
	} else {
		store := services.NewDBOTPStore(db)
		sweeper, err := services.StartOTPSweeper(store, cfg.OTPCleanupSchedule, log.Named("otp"))
		if err != nil {
			return fmt.Errorf("otp sweeper: %w", err)
		}
		defer sweeper.Stop()
		opts.OTPs = store
	}

	if cfg.FirebaseCredPath != "" {
		pusher, err := services.NewFCMPusher(ctx, cfg.FirebaseCredPath)
		if err != nil {
			log.Warn("firebase unavailable, push disabled", zap.Error(err))
		} else {
			opts.Push = pusher
		}
	}
	if cfg.SendGridAPIKey != "" {
		opts.Mail = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.AppName)
	} else {
		log.Warn("SENDGRID_API_KEY not set, email disabled")
	}

	svc := services.New(db, log, opts)
	jwt := utils.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.New(svc, jwt, hub, cfg, log))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("app", cfg.AppName), zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	svc.Notifications.Wait()
	return nil
}
