package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/nhle/mastodon-notify/internal/bridge"
	"github.com/nhle/mastodon-notify/internal/browser"
	"github.com/nhle/mastodon-notify/internal/credential"
	"github.com/nhle/mastodon-notify/internal/desktop"
	"github.com/nhle/mastodon-notify/internal/feed"
	"github.com/nhle/mastodon-notify/internal/history"
	"github.com/nhle/mastodon-notify/internal/model"
	"github.com/nhle/mastodon-notify/internal/pending"
	"github.com/nhle/mastodon-notify/internal/setup"
)

// newOpener builds the link opener from $BROWSER.
func newOpener() (*browser.Opener, error) {
	cfg, err := browser.ParseEnv()
	if err != nil {
		return nil, err
	}
	return browser.New(cfg)
}

// runConfig authorizes the account and saves host and user for later runs.
func runConfig(ctx context.Context, cfg *model.AppConfig, configPath string) error {
	opener, err := newOpener()
	if err != nil {
		log.Printf("browser unavailable: %v", err)
	}

	w := &setup.Wizard{
		Host:     cfg.Host,
		Account:  cfg.Account(),
		Tokens:   credential.NewStore(),
		Prompter: setup.FormPrompter{},
		Out:      os.Stdout,
	}
	if opener != nil {
		w.Opener = opener
	}
	if err := w.Run(ctx); err != nil {
		return err
	}

	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	log.Printf("configuration saved to %s", configPath)
	return nil
}

// runDaemon waits for a token, then bridges the account's notifications to
// the desktop until the feed fails or the process is interrupted.
func runDaemon(ctx context.Context, cfg *model.AppConfig) error {
	account := cfg.Account()

	token, err := credential.Await(ctx, credential.NewStore(), account, credential.DefaultPollInterval)
	if err != nil {
		return fmt.Errorf("waiting for token: %w", err)
	}
	log.Printf("found stored token for user %s", account)

	opener, err := newOpener()
	if err != nil {
		return err
	}

	stream, err := feed.Dial(ctx, cfg.Host, token)
	if err != nil {
		return err
	}
	defer stream.Close()

	bus, err := desktop.ConnectSession()
	if err != nil {
		return err
	}
	defer bus.Close()

	settings := desktop.Settings{AppName: model.AppName, Grace: cfg.Grace()}
	dispatcher := desktop.NewDispatcher(bus, pending.New(settings.Grace), settings)

	opts := bridge.Options{
		Feed:       stream,
		Dispatcher: dispatcher,
		Signals:    bus,
		Opener:     opener,
		Icon:       cfg.Notify.Icon,
		Timeout:    cfg.Timeout(),
	}
	if cfg.History.Path != "" {
		journal, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts.Journal = journal
	}

	log.Printf("started mastodon notify daemon on account %s", account)
	return bridge.New(opts).Run(ctx)
}

// runHistory prints the most recent deliveries from the journal.
func runHistory(ctx context.Context, cfg *model.AppConfig) error {
	journal, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	deliveries, err := journal.Recent(ctx, cfg.History.Limit)
	if err != nil {
		return err
	}
	return history.PrintReport(os.Stdout, deliveries)
}
