package config

import (
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultPort         = 3000
	defaultMonPort      = 8888
	defaultLogLevel     = "info"
	defaultServiceName  = "voice-relay"
	defaultTextTimeout  = 10 * time.Second
	defaultAudioTimeout = 20 * time.Second
)

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT"`
	MonPort     int    `env:"MON_PORT"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"SERVICE_NAME"`

	TelegramBotToken    string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID      string        `env:"TELEGRAM_CHAT_ID"`
	TelegramAPIEndpoint string        `env:"TELEGRAM_API_ENDPOINT"`
	TextTimeout         time.Duration `env:"TEXT_TIMEOUT"`
	AudioTimeout        time.Duration `env:"AUDIO_TIMEOUT"`
	TextPrefix          string        `env:"TEXT_PREFIX"`

	// ElevenLabsAPIKey is reserved for calling back into the voice service; the relay does not use it.
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`
}

// SetDefaults fills every unset optional field.
func (s *Settings) SetDefaults() {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.MonPort == 0 {
		s.MonPort = defaultMonPort
	}
	if s.LogLevel == "" {
		s.LogLevel = defaultLogLevel
	}
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.TelegramAPIEndpoint == "" {
		s.TelegramAPIEndpoint = tgbotapi.APIEndpoint
	}
	if s.TextTimeout <= 0 {
		s.TextTimeout = defaultTextTimeout
	}
	if s.AudioTimeout <= 0 {
		s.AudioTimeout = defaultAudioTimeout
	}
}

// Validate reports settings the relay cannot run without.
func (s *Settings) Validate() error {
	var errs []error
	if s.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if s.TelegramChatID == "" {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required"))
	}
	if s.Port == s.MonPort {
		errs = append(errs, errors.New("PORT and MON_PORT must differ"))
	}
	return errors.Join(errs...)
}
