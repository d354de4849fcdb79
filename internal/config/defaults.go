package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			URL:            "ws://127.0.0.1:2700/stream",
			Language:       "ja-JP",
			InterimResults: true,
		},
		Capture: CaptureConfig{
			SilenceWindowMS:   60000,
			StartCooldownMS:   180,
			StartRetries:      3,
			StartRetryDelayMS: 250,
			AnswerTextCap:     2000,
		},
		Data:   DataConfig{Dir: ""},
		Export: ExportConfig{Format: "csv"},
	}
}
