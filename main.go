package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/logging"
	"github.com/sadopc/tally/internal/prefs"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/tui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/tally/config.toml)")
	dbPath := flag.String("db", "", "override database path")
	prefsPath := flag.String("prefs", "", "override preferences file path")
	logPath := flag.String("log", "", "override log file path")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("tally", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{*dbPath, &cfg.Database},
		{*prefsPath, &cfg.PrefsFile},
		{*logPath, &cfg.LogFile},
	} {
		if o.flag == "" {
			continue
		}
		if *o.dst, err = config.ExpandPath(o.flag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	}

	logger, logCloser := logging.New(logging.Options{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()
	logger.Printf("starting tally %s (db %s)", version, cfg.Database)

	s, err := store.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		return 1
	}
	defer s.Close()
	s.SetLogger(logger)

	p, err := prefs.Open(cfg.PrefsFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening preferences: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := tui.NewApp(ctx, s, p, tui.Options{
		Logger:     logger,
		UndoWindow: cfg.UndoWindow,
		IdleDim:    cfg.IdleDim,
		Version:    version,
		DBPath:     cfg.Database,
	})
	prog := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := prog.Run()
	if m, ok := final.(tui.App); ok {
		m.Close()
	} else {
		app.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Printf("program exited: %v", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
