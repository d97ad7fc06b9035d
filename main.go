package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focusflow/internal/config"
	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/logger"
	"github.com/sadopc/focusflow/internal/notify"
	"github.com/sadopc/focusflow/internal/sound"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(dir, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log, logCloser, err := logger.Open(level, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	writer := store.NewWriter(db, log, store.WithErrorHandler(func(err error) {
		log.Error("persist: %v", err)
	}))
	writer.Start(context.Background())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if n := writer.Pending(); n > 0 {
			log.Info("flushing %d pending writes", n)
		}
		if err := writer.Close(ctx); err != nil {
			log.Error("flush writes: %v", err)
		}
	}()

	chime := openSound(cfg, log)
	// Notifications ring the terminal bell; there is no desktop notifier.
	host := tui.NewHost(cfg.TickInterval, os.Stdout)

	eng := engine.New(writer, log,
		engine.WithScheduler(host),
		engine.WithNotifier(notify.Multi{host, notify.Log{Log: log}}),
		engine.WithSound(chime),
		engine.WithAutoStartDelay(cfg.AutoStartDelay),
	)
	if err := eng.Load(context.Background()); err != nil {
		// Unreadable documents fall back to defaults; keep going.
		log.Warn("load state: %v", err)
	}

	app := tui.NewApp(eng, host, tui.WithLogger(log))
	p := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("focusflow started (db=%s)", cfg.DBPath)
	if _, err := p.Run(); err != nil {
		return err
	}
	if pl, ok := chime.(*sound.Player); ok {
		pl.Stop()
	}
	log.Info("focusflow stopped")
	return nil
}

// openSound picks the oto player when audio is enabled, falling back to the
// terminal bell when no device is available.
func openSound(cfg config.Config, log *logger.Logger) domain.Sound {
	if !cfg.Audio {
		return sound.Nop{}
	}
	p, err := sound.NewPlayer(log)
	if err != nil {
		if errors.Is(err, domain.ErrNoAudio) {
			log.Warn("%v; using terminal bell", err)
		} else {
			log.Error("audio: %v", err)
		}
		return sound.Bell{Out: os.Stdout}
	}
	return p
}
