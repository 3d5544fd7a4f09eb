package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/courier/brain"
	"github.com/bizline/bizline/internal/courier/config"
	"github.com/bizline/bizline/internal/courier/couriercommon"
	"github.com/bizline/bizline/internal/courier/credstore"
	"github.com/bizline/bizline/internal/courier/server"
	"github.com/bizline/bizline/internal/courier/session"
	"github.com/bizline/bizline/internal/courier/wire/engine"
)

func init() {
	couriercommon.InitLogger()
}

type cmdoptions struct {
	configFile string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	opt := parseFlags()

	slog.Info().Str("config_file", opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(opt.configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if config.Config().ServerPort == "" {
		return fmt.Errorf("server port not defined")
	}

	mgr := createSessionManager()

	// Bring back every tenant whose stored login is still valid.
	mgr.RestoreOnBoot(ctx)

	serverErrors, shutdownServer, err := createCourierServer(ctx, mgr)
	if err != nil {
		return fmt.Errorf("creating courier server: %w", err)
	}

	// Channel to listen for an interrupt or terminate signal from the OS.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		mgr.Shutdown()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		shutdownServer()
		mgr.Shutdown()
	}

	slog.Info().Msg("server stopped")
	return nil
}

func createSessionManager() *session.Manager {
	cfg := config.Config()
	return session.NewManager(session.Options{
		Store:  credstore.New(config.GetCredentialRoot()),
		Dialer: engine.NewDialer(engine.Config{
			Command: cfg.Engine.Command,
			Args:    cfg.Engine.Args,
		}),
		Brain: brain.New(&brain.Config{
			URL:          cfg.Brain.URL,
			TextTimeout:  cfg.Brain.GetTextTimeout(),
			MediaTimeout: cfg.Brain.GetMediaTimeout(),
		}),
		MaxReconnect: cfg.Reconnect.MaxAttempts,
		BackoffUnit:  cfg.Reconnect.GetBackoffUnit(),
		BackoffCap:   cfg.Reconnect.GetBackoffCap(),
		Media: session.MediaOptions{
			ImageMaxBytes:    cfg.Media.ImageMaxBytes,
			DocumentMaxBytes: cfg.Media.DocumentMaxBytes,
			DefaultDocMime:   cfg.Media.DefaultDocMime,
			DownloadTimeout:  cfg.Media.GetDownloadTimeout(),
		},
		Typing: typingOptions(&cfg.Typing),
	})
}

func typingOptions(t *config.TypingConfig) session.TypingOptions {
	shortMin, shortMax := t.Band(0)
	longMin, longMax := t.Band(t.ShortReplyChars + 1)
	return session.TypingOptions{
		ShortReplyChars: t.ShortReplyChars,
		ShortMin:        shortMin,
		ShortMax:        shortMax,
		LongMin:         longMin,
		LongMax:         longMax,
	}
}

func createCourierServer(ctx context.Context, mgr *session.Manager) (chan error, func(), error) {
	slog := log.With().Str("state", "init").Logger()
	s, err := server.CreateNewServer(mgr)
	if err != nil {
		return nil, nil, fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              config.Config().ServerHostName + ":" + config.Config().ServerPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info().Str("port", config.Config().ServerPort).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := func() {
		// Give outstanding requests 5 seconds to complete and initiate the shutdown.
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	return serverErrors, shutdown, nil
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	flag.StringVar(&opt.configFile, "config", couriercommon.DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
