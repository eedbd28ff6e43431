package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"example.com/registration/internal/config"
	"example.com/registration/internal/logger"
	"example.com/registration/internal/metrics"
	"example.com/registration/internal/notify"
	"example.com/registration/internal/registration"
	"example.com/registration/internal/storage"
	transport "example.com/registration/internal/transport/http"
)

func main() {
	started := time.Now()
	cfg, err := config.Parse()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config invalid", "err", err)
		os.Exit(1)
	}
	log.Info("config loaded", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend,
		"smtp_host", cfg.SMTP.Host, "smtp_port", cfg.SMTP.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 30*time.Second)
	store, err := storage.Open(connectCtx, cfg, log)
	cancelConnect()
	if err != nil {
		log.Error("store connect", "err", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("store close", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sender := notify.NewSender(cfg.SMTP, log)
	svc := registration.NewService(store, sender, m, log)

	deps := &transport.ServerDeps{
		Cfg:           cfg,
		Registrations: svc,
		Relay:         sender,
		Gatherer:      reg,
		Log:           log,
		Started:       started,
		Now:           time.Now,
	}
	h := deps.Router()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", "err", err)
	}
}
