package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	raw := strings.TrimSpace(cfg.Speech.URL)
	if raw == "" {
		return nil, fmt.Errorf("speech.url must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("speech.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("speech.url must use ws:// or wss://, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("speech.url must include a host")
	}
	if strings.TrimSpace(cfg.Speech.Language) == "" {
		return nil, fmt.Errorf("speech.language must not be empty")
	}

	if cfg.Capture.SilenceWindowMS < 0 {
		return nil, fmt.Errorf("capture.silence_window_ms must be >= 0")
	}
	if cfg.Capture.SilenceWindowMS == 0 {
		warnings = append(warnings, Warning{Message: "capture.silence_window_ms=0 disables auto-pause"})
	} else if cfg.Capture.SilenceWindowMS < 1000 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("capture.silence_window_ms=%d is under one second; capture will pause almost immediately", cfg.Capture.SilenceWindowMS)})
	}
	if cfg.Capture.StartCooldownMS < 0 {
		return nil, fmt.Errorf("capture.start_cooldown_ms must be >= 0")
	}
	if cfg.Capture.StartRetries < 1 {
		return nil, fmt.Errorf("capture.start_retries must be >= 1")
	}
	if cfg.Capture.StartRetryDelayMS < 0 {
		return nil, fmt.Errorf("capture.start_retry_delay_ms must be >= 0")
	}
	if cfg.Capture.AnswerTextCap <= 0 {
		return nil, fmt.Errorf("capture.answer_text_cap must be > 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Export.Format)) {
	case "csv", "xlsx", "json":
	default:
		return nil, fmt.Errorf("export.format must be one of: csv, xlsx, json")
	}

	return warnings, nil
}
