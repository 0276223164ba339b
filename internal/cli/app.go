package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"BigPictureWatch/internal/assembler"
	"BigPictureWatch/internal/cache"
	"BigPictureWatch/internal/collector"
	"BigPictureWatch/internal/config"
	"BigPictureWatch/internal/logger"
	"BigPictureWatch/internal/metrics"
	"BigPictureWatch/internal/notifier"
	"BigPictureWatch/internal/recorder"
	"BigPictureWatch/internal/scheduler"
)

// app is the wired object graph shared by all commands.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	rec      recorder.Recorder
	sched    *scheduler.Scheduler
	telegram *notifier.TelegramNotifier
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	macro := collector.NewFredFetcher(cfg.Sources.FredURL, cfg.Proxy, cfg.Sources.Timeout)
	var market collector.MarketSource
	if cfg.Sources.VsTrader.BaseURL != "" {
		market = collector.NewVsTraderFetcher(cfg.Sources.VsTrader.BaseURL, cfg.Sources.VsTrader.APIKey, cfg.Proxy, cfg.Sources.Timeout)
	} else {
		market = collector.NewYahooFetcher(cfg.Sources.YahooURL, cfg.Proxy, cfg.Sources.Timeout)
	}
	table := collector.NewTableFetcher(cfg.Proxy, cfg.Sources.TableTimeout)
	log.Debug().Str("macro", macro.Name()).Str("market", market.Name()).Str("table", table.Name()).Msg("data sources")

	normFrom, normTo, err := cfg.NormalizationWindow()
	if err != nil {
		return nil, err
	}
	mr := metrics.New()
	asm, err := assembler.New(assembler.Config{
		HistoryYears:      cfg.History.MacroYears,
		FuturesLongYears:  cfg.History.FuturesLongYears,
		FuturesShortYears: cfg.History.FuturesShortYears,
		Cities:            cfg.Cities,
		NormFrom:          normFrom,
		NormTo:            normTo,
		ShillerURL:        cfg.Sources.ShillerURL,
	}, macro, market, table,
		cache.New(cfg.Cache.Path, cache.WithLogger(log)),
		assembler.WithLogger(log),
		assembler.WithObserver(mr),
	)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	a := &app{cfg: cfg, log: log, rec: rec}
	a.sched = scheduler.NewScheduler(ctx, asm, rec, log)
	a.sched.Metrics = mr
	a.sched.TextfilePath = cfg.Metrics.TextfilePath
	if cfg.Telegram.BotToken != "" {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		a.sched.Notifier = a.telegram
	}
	return a, nil
}

func (a *app) Close() error {
	return a.rec.Close()
}
