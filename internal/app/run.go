package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Strings("platforms", a.cfg.EnabledPlatforms),
		zap.Bool("cross-platform", a.cfg.CrossPlatformArb),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	err := a.balances.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start balance tracker: %w", err)
	}

	err = a.riskMgr.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start risk manager: %w", err)
	}

	for name, books := range a.books {
		err = books.Start(a.ctx)
		if err != nil {
			return fmt.Errorf("start orderbook manager %s: %w", name, err)
		}
	}

	err = a.positions.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start position monitor: %w", err)
	}

	a.wg.Add(1)
	go a.runRegistry()

	err = a.engine.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start arbitrage engine: %w", err)
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runRegistry() {
	defer a.wg.Done()
	err := a.registry.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("market-registry-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
