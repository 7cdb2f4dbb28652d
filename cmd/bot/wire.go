package main

import (
	"context"
	"fmt"

	"weekly_scheduler_bot/internal/app"
	"weekly_scheduler_bot/internal/domain/chat"
	"weekly_scheduler_bot/internal/domain/cycle"
	"weekly_scheduler_bot/internal/infra/config"
	idb "weekly_scheduler_bot/internal/infra/database"
	"weekly_scheduler_bot/internal/infra/discord"
	"weekly_scheduler_bot/internal/infra/logger"
	"weekly_scheduler_bot/internal/infra/storage"
	"weekly_scheduler_bot/internal/infra/telegram"
)

// dependencies are the wired components shared by every subcommand.
type dependencies struct {
	chat    chat.Client
	repo    cycle.Repository
	service *app.SchedulingService
	closers []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("Failed to close resource")
		}
	}
}

func wire(ctx context.Context, cfg *config.AppConfig) (*dependencies, error) {
	d := &dependencies{}

	settings, err := buildSettings(cfg)
	if err != nil {
		return nil, err
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	d.chat = discord.NewClient(session, cfg.DiscordGuildID, logger.Component("discord"))

	repo, closer, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d.repo = repo
	if closer != nil {
		d.closers = append(d.closers, closer)
	}

	var opts []app.Option
	if cfg.MirrorEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			d.Close()
			return nil, err
		}
		opts = append(opts, app.WithMirror(telegram.NewTelebotMirror(bot, cfg.TelegramMirrorChatID)))
		logger.Log.WithField("chat_id", cfg.TelegramMirrorChatID).Info("Telegram mirror enabled")
	}

	d.service = app.NewSchedulingService(d.chat, d.repo, settings, logger.Component("scheduling"), opts...)
	return d, nil
}

// openRepository selects the state backend. The returned closer may be nil.
func openRepository(ctx context.Context, cfg *config.AppConfig) (cycle.Repository, func() error, error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := idb.NewPostgresStateRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil
	case config.BackendSQLite:
		db, err := idb.NewSQLiteConnection(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := idb.NewSQLiteStateRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil
	case config.BackendBadger:
		repo, err := storage.OpenBadgerStateRepository(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case config.BackendFile:
		return storage.NewFileStateRepository(cfg.StateFile), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

// buildSettings maps configuration onto the scheduling rules.
func buildSettings(cfg *config.AppConfig) (app.Settings, error) {
	s := app.DefaultSettings()
	s.ChannelRef = cfg.ChannelRef()
	s.AnchorWeekday = cfg.AnchorWeekday

	s.Triggers = cycle.TriggerConfig{
		Location:          cfg.Location,
		RecruitWeekday:    cfg.RecruitWeekday,
		RecruitHour:       cfg.RecruitHour,
		ReminderWeekdays:  cfg.ReminderWeekdays,
		ReminderHourStart: cfg.ReminderHourStart,
		ReminderHourEnd:   cfg.ReminderHourEnd,
		DayBeforeHour:     cfg.DayBeforeHour,
		DayOfHour:         cfg.DayOfHour,
	}
	s.Commands = cycle.CommandSet{
		Reset:       cfg.CommandReset,
		ForceOpen:   cfg.CommandForceOpen,
		ForceRemind: cfg.CommandForceRemind,
		ForceCancel: cfg.CommandForceCancel,
	}
	s.CommandScanLimit = cfg.CommandScanLimit
	s.QuorumThreshold = cfg.QuorumThreshold
	s.ExcludeSelfVote = cfg.ExcludeSelfVote
	if cfg.ReplacePollOnForceOpen {
		s.ForceOpenPolicy = app.ForceOpenReplace
	}

	s.Texts.Mention = cfg.Mention
	s.Texts.EventName = cfg.EventName
	s.Texts.EventTime = cfg.EventTime
	if cfg.MessagesFile != "" {
		pools, err := config.LoadMessagePools(cfg.MessagesFile)
		if err != nil {
			return app.Settings{}, err
		}
		if len(pools.DayBefore) > 0 {
			s.Texts.DayBeforePool = pools.DayBefore
		}
		if len(pools.DayOf) > 0 {
			s.Texts.DayOfPool = pools.DayOf
		}
		if len(pools.Upcoming) > 0 {
			s.Texts.UpcomingPool = pools.Upcoming
		}
	}

	if err := s.Validate(); err != nil {
		return app.Settings{}, fmt.Errorf("invalid scheduling settings: %w", err)
	}
	return s, nil
}
