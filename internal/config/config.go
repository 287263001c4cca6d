package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the service runtime configuration.
type Config struct {
	Addr         string  `mapstructure:"addr"`
	DataDir      string  `mapstructure:"data_dir"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	LanguageHint string  `mapstructure:"language_hint"`
	CleanupHours float64 `mapstructure:"cleanup_hours"`
	YtdlpPath    string  `mapstructure:"ytdlp_path"`
	FfmpegPath   string  `mapstructure:"ffmpeg_path"`
	LogLevel     string  `mapstructure:"log_level"`
}

// Load reads configuration from an optional file with environment
// overrides. A missing file yields defaults, matching first-launch
// behavior.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8000")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("model", "gemini-2.5-flash")
	v.SetDefault("language_hint", "")
	v.SetDefault("cleanup_hours", 24.0)
	v.SetDefault("ytdlp_path", "yt-dlp")
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("log_level", "info")

	// CLI-era environment variables keep working; GOOGLE_API_KEY takes
	// precedence over GEMINI_API_KEY.
	_ = v.BindEnv("api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("cleanup_hours", "CLEANUP_HOURS")
	_ = v.BindEnv("addr", "LISTEN_ADDR")
	_ = v.BindEnv("data_dir", "DATA_DIR")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
