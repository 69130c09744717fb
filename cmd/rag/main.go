package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"raganswer/internal/app"
	"raganswer/internal/config"
	"raganswer/internal/logger"
	"raganswer/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, logPath, mode string
	var topK int
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/rag/config.yaml if not provided)")
	flag.StringVar(&logPath, "log", "rag.log", "File to write logs to while the TUI owns the terminal")
	flag.StringVar(&mode, "mode", "mix", "Query mode: local, global, hybrid, naive or mix")
	flag.IntVar(&topK, "top-k", 5, "Number of results to use per answer")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newFileLogger(cfg.Logging, logPath)
	svc, err := app.NewService(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build service: %v\n", err)
		os.Exit(1)
	}
	if _, err := svc.Initialize(context.Background(), false); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	m := tui.New(svc, tui.Options{Mode: mode, TopK: topK})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newFileLogger keeps log output off the terminal the TUI draws on.
func newFileLogger(cfg logger.Config, path string) logger.Logger {
	if path == "" {
		return logger.NewNop()
	}
	return logger.NewFile(cfg, path)
}
