// Package doctor runs runtime readiness diagnostics for config, data, and the speech engine.
package doctor

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ymorita/soudan/internal/config"
	"github.com/ymorita/soudan/internal/store"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/data checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}
	checks = append(checks, checkEngineURL(cfg.Config.Speech.URL))
	checks = append(checks, checkDataDir(cfg.Config.Data.Dir))
	checks = append(checks, checkSnapshot(cfg.Config.Data.Dir))
	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("%q not found; defaults in effect", cfg.Path)
	}
	if len(cfg.Warnings) > 0 {
		notes := make([]string, 0, len(cfg.Warnings))
		for _, w := range cfg.Warnings {
			notes = append(notes, w.Message)
		}
		message += " (" + strings.Join(notes, "; ") + ")"
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEngineURL validates the URL shape and probes TCP reachability. An
// unreachable engine fails the check; capture degrades at runtime but the
// operator should know before a session starts.
func checkEngineURL(raw string) Check {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return Check{Name: "speech.url", Pass: false, Message: fmt.Sprintf("not a usable ws:// or wss:// URL: %q", raw)}
	}

	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "wss" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := net.DialTimeout("tcp", host, 2*time.Second)
	if err != nil {
		return Check{Name: "speech.url", Pass: false, Message: fmt.Sprintf("engine unreachable at %s: %v", host, err)}
	}
	_ = conn.Close()
	return Check{Name: "speech.url", Pass: true, Message: fmt.Sprintf("engine reachable at %s", host)}
}

// checkDataDir verifies the snapshot directory exists (or can be created)
// and is writable.
func checkDataDir(dir string) Check {
	path, err := store.DBPath(dir)
	if err != nil {
		return Check{Name: "data.dir", Pass: false, Message: err.Error()}
	}
	dataDir := filepath.Dir(path)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return Check{Name: "data.dir", Pass: false, Message: fmt.Sprintf("cannot create %s: %v", dataDir, err)}
	}

	probe, err := os.CreateTemp(dataDir, ".doctor-*")
	if err != nil {
		return Check{Name: "data.dir", Pass: false, Message: fmt.Sprintf("%s is not writable: %v", dataDir, err)}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return Check{Name: "data.dir", Pass: true, Message: fmt.Sprintf("%s is writable", dataDir)}
}

// checkSnapshot opens the database and decodes the stored snapshot.
func checkSnapshot(dir string) Check {
	path, err := store.DBPath(dir)
	if err != nil {
		return Check{Name: "snapshot", Pass: false, Message: err.Error()}
	}

	ss, err := store.OpenSnapshotStore(path)
	if err != nil {
		return Check{Name: "snapshot", Pass: false, Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	defer ss.Close()

	snap, err := ss.Load()
	if err != nil {
		return Check{Name: "snapshot", Pass: false, Message: fmt.Sprintf("cannot read snapshot: %v", err)}
	}
	return Check{Name: "snapshot", Pass: true, Message: fmt.Sprintf("%d questions, %d categories", len(snap.Questions), len(snap.Categories))}
}
