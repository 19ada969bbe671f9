package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avstrong/hotelbooking/internal/config"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/transport/web"
)

const shutdownTimeout = 4 * time.Second

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
}

func webConf(l *logger.Logger, srv config.Server) web.Conf {
	return web.Conf{
		L:                 l,
		ServerLogger:      log.Default(),
		Host:              srv.Host,
		Port:              srv.Port,
		ReadHeaderTimeout: srv.ReadHeaderTimeout,
		LivenessEndpoint:  srv.LivenessEndpoint,
	}
}

// serve blocks until ctx is done or the listener fails, then shuts the
// server down gracefully. A listener failure is returned.
func serve(ctx context.Context, cancel context.CancelFunc, l *logger.Logger, conf web.Conf, srv *web.Server) error {
	//nolint:contextcheck
	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Srv().Shutdown(ctx); err != nil {
			l.LogErrorf("Failed to stop http server: %v", err.Error())
		}
	}()

	l.LogInfo("Application is running on %v:%v...", conf.Host, conf.Port)

	if err := srv.Srv().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		cancel()

		return fmt.Errorf("listen on %s:%s: %w", conf.Host, conf.Port, err)
	}

	l.LogInfo("Application stopped gracefully")

	return nil
}

func wrap(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}
