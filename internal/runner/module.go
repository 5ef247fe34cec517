package runner

import (
	"context"

	"rotation_bot/internal/journal"
	"rotation_bot/internal/modules/config"
	"rotation_bot/internal/notify"
	"rotation_bot/internal/stream"
	"rotation_bot/pkg/logger"
	"rotation_bot/pkg/tracing"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			stream.NewHub,
			NewMetrics,
			NewLoop,

			// Notifier: without telegram credentials, fall back to stdout.
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
						return tg
					}
				}
				return notify.NewStdout()
			},

			func(cfg *config.Config) journal.Journal {
				if cfg.JournalPath == "" {
					return journal.Nop{}
				}
				j, err := journal.NewSQLite(cfg.JournalPath)
				if err != nil {
					logger.Error("open order journal: %v", err)
					return journal.Nop{}
				}
				return j
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			sd fx.Shutdowner,
			ctx context.Context,
			cfg *config.Config,
			l *Loop,
			jrnl journal.Journal,
		) {
			var closeTracer func()
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if cfg.Jaeger.Host != "" {
						_, closer, err := tracing.InitTracer(tracing.Config{
							Host: cfg.Jaeger.Host,
							Port: cfg.Jaeger.Port,
						})
						if err != nil {
							return err
						}
						closeTracer = closer
					}

					go func() {
						if err := l.Run(ctx); err != nil {
							logger.Error("trading loop stopped: %v", err)
							_ = sd.Shutdown()
						}
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					if closeTracer != nil {
						closeTracer()
					}
					return jrnl.Close()
				},
			})
		}),
	)
}
