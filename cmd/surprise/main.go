// Command surprise plays the birthday surprise in a terminal against a
// running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/HammerMeetNail/birthdaysurprise/internal/client"
	"github.com/HammerMeetNail/birthdaysurprise/internal/config"
	"github.com/HammerMeetNail/birthdaysurprise/internal/flow"
	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
	"github.com/HammerMeetNail/birthdaysurprise/internal/tui"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.LoadClient()

	fs := flag.NewFlagSet("surprise", flag.ContinueOnError)
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "surprise server base URL")
	fs.StringVar(&cfg.VisitorID, "visitor", cfg.VisitorID, "visitor id used to remember the countdown")
	fs.BoolVar(&cfg.OpenMail, "open-mail", cfg.OpenMail, "open the letter in the desktop mail client")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "write logs to this file")
	reset := fs.Bool("reset", false, "forget that the countdown already finished")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logOut, closeLog, err := openLogOutput(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logging.Default.SetOutput(logOut)
	logger := logging.New().SetOutput(logOut)

	visitorID, err := resolveVisitorID(cfg)
	if err != nil {
		return err
	}

	api, err := client.New(cfg.APIURL, client.WithLogger(logger))
	if err != nil {
		return err
	}
	visitor, err := api.Visitor(visitorID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *reset {
		if err := visitor.Reset(ctx); err != nil {
			return fmt.Errorf("resetting countdown: %w", err)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	surprise := api.LoadConfig(fetchCtx)
	cancel()

	var open func(string) error
	if cfg.OpenMail {
		open = tui.OpenLink
	}
	composer := tui.NewComposer(open)

	engine := flow.NewEngine(surprise,
		flow.WithSink(api),
		flow.WithComposer(composer),
		flow.WithElapsedStore(visitor),
		flow.WithLogger(logger),
	)

	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()
	engineDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(engineCtx) }()

	program := tea.NewProgram(tui.NewApp(engineCtx, engine, composer), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()

	stopEngine()
	if err := <-engineDone; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", runErr)
	}
	return nil
}

// openLogOutput returns where logs go. The terminal belongs to the UI, so
// without a path logs are dropped.
func openLogOutput(path string) (io.Writer, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// resolveVisitorID prefers an explicit id, then a stored one, and otherwise
// creates and stores a new one so later runs skip a finished countdown.
func resolveVisitorID(cfg config.ClientConfig) (string, error) {
	if cfg.VisitorID != "" {
		if !models.ValidVisitorID(cfg.VisitorID) {
			return "", fmt.Errorf("invalid visitor id %q", cfg.VisitorID)
		}
		return cfg.VisitorID, nil
	}

	path := cfg.VisitorFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return uuid.NewString(), nil
		}
		path = filepath.Join(dir, "birthdaysurprise", "visitor-id")
	}

	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); models.ValidVisitorID(id) {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return id, nil
	}
	_ = os.WriteFile(path, []byte(id+"\n"), 0o600)
	return id, nil
}
