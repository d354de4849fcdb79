// Package app dispatches parsed CLI commands onto the soudan runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ymorita/soudan/internal/capture"
	"github.com/ymorita/soudan/internal/cli"
	"github.com/ymorita/soudan/internal/config"
	"github.com/ymorita/soudan/internal/doctor"
	"github.com/ymorita/soudan/internal/export"
	"github.com/ymorita/soudan/internal/importer"
	"github.com/ymorita/soudan/internal/ipc"
	"github.com/ymorita/soudan/internal/logging"
	"github.com/ymorita/soudan/internal/speech"
	"github.com/ymorita/soudan/internal/store"
	"github.com/ymorita/soudan/internal/ui"
	"github.com/ymorita/soudan/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("soudan"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("soudan"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandConfirm:
		return r.forwardOrFail(ctx, ipc.CommandConfirm)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandImport:
		return r.commandImport(cfgLoaded.Config, logger, parsed.File)
	case cli.CommandExport:
		return r.commandExport(cfgLoaded.Config, logger, parsed.File)
	case cli.CommandPurge:
		return r.commandPurge(cfgLoaded.Config, logger, parsed.Yes)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// openStore loads the persisted snapshot into a live store whose mutations
// write back through the same database.
func openStore(cfg config.Config, logger *slog.Logger) (*store.Store, *store.SnapshotStore, error) {
	path, err := store.DBPath(cfg.Data.Dir)
	if err != nil {
		return nil, nil, err
	}
	snapshots, err := store.OpenSnapshotStore(path)
	if err != nil {
		return nil, nil, err
	}

	snap, err := snapshots.Load()
	if err != nil {
		snapshots.Close()
		return nil, nil, err
	}

	st := store.New(logger, snapshots)
	st.Load(snap)
	return st, snapshots, nil
}

func (r Runner) commandImport(cfg config.Config, logger *slog.Logger, path string) int {
	st, snapshots, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer snapshots.Close()

	plan, err := importer.Run(path, st)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("import complete",
		"file", path,
		"questions", len(plan.Questions),
		"categories", len(plan.Categories),
		"skipped", plan.Skipped,
	)
	fmt.Fprintf(r.Stdout, "imported %d questions, %d new categories (%d skipped)\n",
		len(plan.Questions), len(plan.Categories), plan.Skipped)
	return 0
}

func (r Runner) commandExport(cfg config.Config, logger *slog.Logger, path string) int {
	st, snapshots, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer snapshots.Close()

	// A bare path picks up the configured default format.
	if !strings.Contains(path, ".") {
		path = path + "." + strings.ToLower(cfg.Export.Format)
	}
	if err := export.WriteFile(path, st); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("export complete", "file", path)
	fmt.Fprintf(r.Stdout, "exported to %s\n", path)
	return 0
}

func (r Runner) commandPurge(cfg config.Config, logger *slog.Logger, yes bool) int {
	if !yes {
		fmt.Fprintln(r.Stderr, "error: purge deletes all stored data; re-run with --yes to confirm")
		return 2
	}

	st, snapshots, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer snapshots.Close()

	st.PurgeAll()
	if err := snapshots.Wipe(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("purge complete")
	fmt.Fprintln(r.Stdout, "all data wiped")
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no active soudan session")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: another soudan session owns the control socket")
		} else {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		}
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	st, snapshots, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer snapshots.Close()

	engine := speech.NewWSEngine(logger, cfg.Speech.URL, cfg.Speech.Language, cfg.Speech.InterimResults)
	controller := capture.New(logger, st, engine, captureConfig(cfg.Capture))
	defer controller.Cancel()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, ipc.NewHandler(controller))
	}()

	program := tea.NewProgram(ui.New(st, controller), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: control server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("session failed", "error", runErr.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}

	logger.Info("session complete")
	return 0
}

// captureConfig maps millisecond config values onto controller durations.
func captureConfig(cfg config.CaptureConfig) capture.Config {
	return capture.Config{
		SilenceWindow:   time.Duration(cfg.SilenceWindowMS) * time.Millisecond,
		StartCooldown:   time.Duration(cfg.StartCooldownMS) * time.Millisecond,
		StartRetries:    cfg.StartRetries,
		StartRetryDelay: time.Duration(cfg.StartRetryDelayMS) * time.Millisecond,
		QuestionTextCap: cfg.AnswerTextCap,
	}
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
