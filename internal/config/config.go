// Package config resolves daemon settings from flags, VOXTALK_* environment
// variables and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is the only fatal configuration error.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY not set")

type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	Proxy          string

	ChatModel    string
	SystemPrompt string

	TranscribeModel string
	SpeechModel     string
	Voice           string
	Language        string

	Calibration  time.Duration
	OnsetTimeout time.Duration
	Pause        time.Duration
	PollInterval time.Duration
	ScratchDir   string
	Cue          string
	Duck         bool
	DuckFactor   float64

	Socket   string
	HTTPAddr string
	BusURL   string
	TraceDB  string

	LogLevel string
}

func register(fs *cli.FlagSet) {
	fs.StringP("env", "e", ".env", "Env file path")
	fs.StringP("log", "l", "info", "Log level (debug, info, warn, error)")

	fs.String("base-url", "https://api.groq.com/openai/v1", "OpenAI-compatible API base URL")
	fs.Duration("request-timeout", 60*time.Second, "Timeout for each remote request")
	fs.StringP("proxy", "p", "", "SOCKS5 proxy address, empty for direct")

	fs.String("chat-model", "llama3-70b-8192", "Chat completion model")
	fs.String("system-prompt", "You are a helpful voice to voice AI assistant.", "System message seeding every session")

	fs.String("transcribe-model", "whisper-large-v3", "Speech transcription model")
	fs.String("speech-model", "playai-tts", "Speech synthesis model")
	fs.String("voice", "Fritz-PlayAI", "Speech synthesis voice")
	fs.String("language", "en", "Language code for synthesized speech")

	fs.Duration("calibration", time.Second, "Ambient noise calibration before each listen")
	fs.Duration("onset-timeout", 5*time.Second, "Max wait for speech to start")
	fs.Duration("pause", 800*time.Millisecond, "Silence that ends an utterance")
	fs.Duration("poll-interval", 100*time.Millisecond, "Playback cancellation poll interval")
	fs.String("scratch-dir", "", "Directory for transient audio, empty for the OS temp dir")
	fs.String("cue", "", "Sound file played before listening")
	fs.Bool("duck", false, "Lower other applications while speaking")
	fs.Float64("duck-factor", 0.3, "Volume factor applied to other applications")

	fs.StringP("socket", "s", "/tmp/voxtalk.sock", "Control socket path")
	fs.String("http", "", "HTTP control address, empty to disable")
	fs.String("bus", "", "Websocket URL for turn events, empty to disable")
	fs.String("trace-db", "", "SQLite turn journal path, empty to disable")
}

// Load parses args into fs and resolves the final configuration.
func Load(fs *cli.FlagSet, args []string) (*Config, error) {
	register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix("VOXTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if err := v.BindEnv("api-key", "VOXTALK_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key: %w", err)
	}

	cfg := &Config{
		APIKey:         v.GetString("api-key"),
		BaseURL:        v.GetString("base-url"),
		RequestTimeout: v.GetDuration("request-timeout"),
		Proxy:          v.GetString("proxy"),

		ChatModel:    v.GetString("chat-model"),
		SystemPrompt: v.GetString("system-prompt"),

		TranscribeModel: v.GetString("transcribe-model"),
		SpeechModel:     v.GetString("speech-model"),
		Voice:           v.GetString("voice"),
		Language:        v.GetString("language"),

		Calibration:  v.GetDuration("calibration"),
		OnsetTimeout: v.GetDuration("onset-timeout"),
		Pause:        v.GetDuration("pause"),
		PollInterval: v.GetDuration("poll-interval"),
		ScratchDir:   v.GetString("scratch-dir"),
		Cue:          v.GetString("cue"),
		Duck:         v.GetBool("duck"),
		DuckFactor:   v.GetFloat64("duck-factor"),

		Socket:   v.GetString("socket"),
		HTTPAddr: v.GetString("http"),
		BusURL:   v.GetString("bus"),
		TraceDB:  v.GetString("trace-db"),

		LogLevel: v.GetString("log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return errors.New("base-url cannot be empty")
	}
	if c.ChatModel == "" {
		return errors.New("chat-model cannot be empty")
	}
	if c.Socket == "" {
		return errors.New("socket cannot be empty")
	}
	for name, d := range map[string]time.Duration{
		"request-timeout": c.RequestTimeout,
		"onset-timeout":   c.OnsetTimeout,
		"pause":           c.Pause,
		"poll-interval":   c.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.Calibration < 0 {
		return errors.New("calibration must be >= 0")
	}
	if c.DuckFactor < 0 || c.DuckFactor > 1 {
		return errors.New("duck-factor must be within [0, 1]")
	}
	return nil
}
