package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"habit-tracker/internal/api"
	"habit-tracker/internal/clock"
	"habit-tracker/internal/notify"
	"habit-tracker/internal/scheduler"
	"habit-tracker/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WatchCommand keeps the engine alive: it ticks timers, delivers reminders
// and optionally serves metrics until the context is cancelled.
type WatchCommand struct {
	app *App

	// Clock drives reminder scheduling. Nil means the system clock in the
	// configured timezone.
	Clock clock.Clock
}

// NewWatchCommand creates a new watch command handler
func NewWatchCommand(app *App) *WatchCommand {
	return &WatchCommand{app: app}
}

// Execute runs until ctx is done
func (c *WatchCommand) Execute(ctx context.Context, args []string) error {
	cfg := c.app.config
	logger := c.app.logger

	clk := c.Clock
	if clk == nil {
		clk = clock.NewSystem(cfg.Engine.Timezone)
	}
	// engine is assigned before the notifier starts, so jobs always see it
	var engine *api.Engine
	sink := notify.GuardedSink{
		Sink: notify.MultiSink{
			notify.NewWriterSink(c.app.out, cfg.Display.TimeFormat),
			notify.NewLogSink(logger),
		},
		Allow: func(p services.ReminderPayload) bool {
			return engine.ShouldDeliver(ctx, p)
		},
	}
	notifier := notify.NewGocronNotifier(clk, sink, logger)

	engine, err := c.app.open(ctx, cfg, notifier)
	if err != nil {
		return err
	}
	defer engine.Close()

	planned := engine.ReplanAll(ctx)
	c.app.printf("Watching %d habit reminder(s), press Ctrl+C to stop\n", len(planned))

	notifier.Start()
	defer notifier.Stop()

	ticker := scheduler.New(cfg.Engine.TickInterval, engine.Tick, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ticker.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		ticker.Stop()
		return nil
	})

	if addr := cfg.Application.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	c.app.printf("Stopped watching\n")
	return nil
}
