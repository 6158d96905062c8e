package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/t77yq/uni-helper/internal/config"
	"github.com/t77yq/uni-helper/internal/mail"
	"github.com/t77yq/uni-helper/internal/monitor"
	"github.com/t77yq/uni-helper/internal/notify"
	"github.com/t77yq/uni-helper/internal/portal"
	"github.com/t77yq/uni-helper/internal/schedule"
	"github.com/t77yq/uni-helper/internal/service"
	"github.com/t77yq/uni-helper/internal/store"
)

const version = "1.2.0"

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load("./config")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	st, err := store.Open(logger, cfg.Store.Path)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	// Embedded NATS server; the UI shell connects here.
	ns, err := server.NewServer(&server.Options{
		Host:   cfg.NATS.Host,
		Port:   cfg.NATS.Port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		logger.Fatal("Failed to create NATS server", zap.Error(err))
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		logger.Fatal("NATS server did not become ready")
	}
	defer ns.Shutdown()

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Name("uni-helper"),
		nats.Timeout(5*time.Second),
		nats.DrainTimeout(10*time.Second),
	)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	logger.Info("Control surface listening", zap.String("url", ns.ClientURL()))

	// Tee logs at info and above to connected clients.
	logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, service.NewLogCore(nc, zapcore.InfoLevel))
	}))

	driver := portal.NewBrowser(cfg.Portal, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := driver.Open(ctx); err != nil {
		logger.Fatal("Failed to open portal browser", zap.Error(err))
	}
	defer driver.Close()

	events := service.NewEvents(logger, nc)
	notifier := notify.NewNotifier(logger, notify.NewDesktop(""), st, events)
	controller := monitor.NewController(logger, st, driver, events, notifier)
	gate := monitor.NewGate(ctx, logger, st, controller, cfg.BusinessHours)

	mailer := mail.NewMailer(cfg.SMTP, cfg.Portal.URL, logger)
	schedules := schedule.NewManager(logger, st)
	reminder := schedule.NewReminder(logger, st, schedules, mailer)

	svc := service.New(logger, nc, st, controller, schedules, events,
		service.NewNoopUpdater(version), cfg.Portal.URL, version)
	if err := svc.Start(ctx); err != nil {
		logger.Fatal("Failed to start control surface", zap.Error(err))
	}
	defer svc.Stop()

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if _, err := c.AddJob("0 */5 * * * *", gate); err != nil {
		logger.Fatal("Failed to schedule business-hours gate", zap.Error(err))
	}
	if _, err := c.AddJob("0 * * * * *", reminder); err != nil {
		logger.Fatal("Failed to schedule reminder loop", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	// Prune cycle history once a day.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -cfg.Store.RetentionDays)
				if err := st.DeleteCyclesBefore(ctx, cutoff); err != nil {
					logger.Error("Failed to prune cycle history", zap.Error(err))
				}
			}
		}
	}()

	logger.Info("uni-helper started",
		zap.String("version", version),
		zap.String("portal", cfg.Portal.URL),
		zap.String("store", cfg.Store.Path),
		zap.String("business_hours", fmt.Sprintf("%02d-%02d",
			cfg.BusinessHours.StartHour, cfg.BusinessHours.EndHour)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	controller.Stop(true)
	cancel()
	if err := nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", zap.Error(err))
	}

	logger.Info("uni-helper stopped")
}
