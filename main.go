package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theleywin/talent-nest-friends/src/app"
	"github.com/theleywin/talent-nest-friends/src/lib"
)

func main() {
	cfg, err := lib.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	lib.ConfigureLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("Failed to open store")
	}

	server := app.New(cfg, st)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down")
		if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
			logrus.WithError(err).Warn("Server shutdown failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":   cfg.Port,
		"driver": cfg.StoreDriver,
	}).Info("Server is running")

	if err := server.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Error("Server stopped")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := st.Close(closeCtx); err != nil {
		logrus.WithError(err).Warn("Failed to close store")
	}
}
