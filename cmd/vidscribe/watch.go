package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mudler/xlog"

	"vidscribe/pkg/watch"
)

type WatchCMD struct {
	Dir string `arg:"" type:"existingdir" help:"Directory to watch for new media files"`

	Overrides `embed:""`
	Schedule  string        `default:"@every 1m" help:"Cron expression for how often to scan, e.g. '@every 30s' or '*/5 * * * *'"`
	Settle    time.Duration `default:"10s" help:"How long a file must be unmodified before it is picked up"`
	Once      bool          `help:"Scan the directory once and exit"`
	Events    bool          `default:"true" negatable:"" help:"Also scan as soon as new files settle, not only on the schedule"`
	Notify    bool          `help:"Send failure notices to the configured Telegram chat"`
}

func (w *WatchCMD) Run(ctx *Context) error {
	cfg, err := loadConfig(ctx.Config, w.Overrides)
	if err != nil {
		return err
	}
	// Unattended runs never launch a desktop viewer.
	if cfg.Open == "system" {
		cfg.Open = "none"
	}

	p, err := buildPipeline(cfg, nil)
	if err != nil {
		return err
	}

	opts := []watch.Option{watch.WithSchedule(w.Schedule), watch.WithSettle(w.Settle)}
	if w.Events {
		opts = append(opts, watch.WithEvents())
	}
	if w.Notify {
		ch, err := newTelegram(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, watch.WithNotifier(ch))
	}

	svc := watch.NewService(w.Dir, func(ctx context.Context, path string) error {
		res, err := p.Run(ctx, path)
		recordRun(cfg, path, res, err)
		return runError(res, err)
	}, opts...)

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if w.Once {
		done, err := svc.Scan(sigctx)
		xlog.Info("scan finished", "transcribed", len(done), "failed", len(svc.Failures()))
		return err
	}

	if err := svc.Start(sigctx); err != nil {
		return err
	}
	<-sigctx.Done()
	xlog.Info("stopping, waiting for the current file to finish")
	<-svc.Stop().Done()
	return nil
}
