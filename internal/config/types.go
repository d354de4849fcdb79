// Package config resolves, parses, validates, and defaults soudan configuration.
package config

// Config is the fully materialized runtime configuration used by soudan.
type Config struct {
	Speech  SpeechConfig  `yaml:"speech"`
	Capture CaptureConfig `yaml:"capture"`
	Data    DataConfig    `yaml:"data"`
	Export  ExportConfig  `yaml:"export"`
}

// SpeechConfig controls the websocket transcription engine connection.
type SpeechConfig struct {
	URL            string `yaml:"url"`
	Language       string `yaml:"language"`
	InterimResults bool   `yaml:"interim_results"`
}

// CaptureConfig controls answer-capture timing and limits.
type CaptureConfig struct {
	SilenceWindowMS   int `yaml:"silence_window_ms"`
	StartCooldownMS   int `yaml:"start_cooldown_ms"`
	StartRetries      int `yaml:"start_retries"`
	StartRetryDelayMS int `yaml:"start_retry_delay_ms"`
	AnswerTextCap     int `yaml:"answer_text_cap"`
}

// DataConfig controls where the snapshot database lives.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ExportConfig controls `export` defaults when the path carries no format.
type ExportConfig struct {
	Format string `yaml:"format"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
