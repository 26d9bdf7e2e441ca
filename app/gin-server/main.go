package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/slife/config"
	"github.com/yoockh/slife/internal/api/routes"
	"github.com/yoockh/slife/internal/bootstrap"
	"github.com/yoockh/slife/internal/logger"
)

const version = "2.1.0"

func main() {
	settings, err := config.Load()
	if err != nil {
		logger.New("info").WithError(err).Fatal("config load failed")
	}
	log := logger.New(settings.LogLevel)
	gin.SetMode(settings.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := bootstrap.Build(ctx, settings, log)
	defer func() {
		if err := res.Close(); err != nil {
			log.WithError(err).Warn("closing clients")
		}
	}()
	if !res.Ready() {
		// health endpoints stay up; chat answers NOT_INITIALIZED
		log.WithError(res.Err).Error("chat service not initialized")
	}

	engine := routes.NewEngine(res.Service, res, routes.EngineOptions{
		Version:        version,
		AllowedOrigins: settings.CORSAllowedOrigins,
	}, log)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
