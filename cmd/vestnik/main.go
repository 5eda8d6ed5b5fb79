package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/api"
	"github.com/ZorinDanil/vestnik/internal/config"
	"github.com/ZorinDanil/vestnik/internal/session"
	"github.com/ZorinDanil/vestnik/internal/tui"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger. The terminal belongs to the UI, so logs go to
	// a file next to the session store.
	logPath := filepath.Join(filepath.Dir(cfg.SessionFile), "vestnik.log")
	_ = os.MkdirAll(filepath.Dir(logPath), 0o700)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: logFile, TimeFormat: time.RFC3339, NoColor: true}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(logFile).
			With().
			Timestamp().
			Logger()
	}

	// Initialize session store
	store := session.NewFileStore(cfg.SessionFile)

	// Create service clients
	httpClient := api.NewHTTPClient()
	deps := tui.Deps{
		Auth:     api.NewAuthClient(cfg.AuthURL, httpClient, logger),
		Profiles: api.NewProfileClient(cfg.ProfileURL, httpClient, logger),
		Chat:     api.NewChatClient(cfg.ChatURL, httpClient, logger),
		Session:  store,
		Logger:   logger,
	}

	logger.Info().
		Str("auth_url", cfg.AuthURL).
		Str("profile_url", cfg.ProfileURL).
		Str("chat_url", cfg.ChatURL).
		Str("env", cfg.Env).
		Msg("starting vestnik")

	p := tea.NewProgram(tui.New(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Fatal().Err(err).Msg("ui crashed")
	}

	logger.Info().Msg("vestnik stopped")
}
