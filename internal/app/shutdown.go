package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Signal all components.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Engine first: stop opening new positions before collaborators close.
	err = a.engine.Close()
	if err != nil {
		a.logger.Error("engine-close-error", zap.Error(err))
	}

	err = a.positions.Close()
	if err != nil {
		a.logger.Error("position-monitor-close-error", zap.Error(err))
	}

	err = a.riskMgr.Close()
	if err != nil {
		a.logger.Error("risk-manager-close-error", zap.Error(err))
	}

	for name, books := range a.books {
		err = books.Close()
		if err != nil {
			a.logger.Error("orderbook-manager-close-error",
				zap.String("exchange", name),
				zap.Error(err))
		}
	}

	err = a.balances.Close()
	if err != nil {
		a.logger.Error("balance-tracker-close-error", zap.Error(err))
	}

	for name, client := range a.clients {
		if closer, ok := client.(interface{ Close() error }); ok {
			err = closer.Close()
			if err != nil {
				a.logger.Error("client-close-error",
					zap.String("exchange", name),
					zap.Error(err))
			}
		}
	}

	err = a.sink.Close()
	if err != nil {
		a.logger.Error("trade-sink-close-error", zap.Error(err))
	}

	a.hub.Close()

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
