package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	methodSendMessage = "sendMessage"
	methodSendAudio   = "sendAudio"

	defaultTextTimeout  = 10 * time.Second
	defaultAudioTimeout = 20 * time.Second

	// Maximum response body size to read from the Bot API
	maxResponseBodySize = 1 << 20
)

// Config configures a Client.
type Config struct {
	BotToken string
	ChatID   string
	// APIEndpoint is a format string taking the token and the method name.
	// Defaults to tgbotapi.APIEndpoint.
	APIEndpoint  string
	TextTimeout  time.Duration
	AudioTimeout time.Duration
	HTTPClient   *http.Client
}

// Client sends text and audio messages to a single Telegram chat.
type Client struct {
	token        string
	chatID       string
	endpoint     string
	textTimeout  time.Duration
	audioTimeout time.Duration
	httpClient   *http.Client
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendAudioRequest struct {
	ChatID string `json:"chat_id"`
	Audio  string `json:"audio"`
}

// New creates a new Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram chat id is required")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if strings.Count(endpoint, "%s") != 2 {
		return nil, fmt.Errorf("telegram API endpoint %q must contain two %%s verbs", endpoint)
	}
	textTimeout := cfg.TextTimeout
	if textTimeout <= 0 {
		textTimeout = defaultTextTimeout
	}
	audioTimeout := cfg.AudioTimeout
	if audioTimeout <= 0 {
		audioTimeout = defaultAudioTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		token:        cfg.BotToken,
		chatID:       cfg.ChatID,
		endpoint:     endpoint,
		textTimeout:  textTimeout,
		audioTimeout: audioTimeout,
		httpClient:   httpClient,
	}, nil
}

// SendText posts a text message to the configured chat.
func (c *Client) SendText(ctx context.Context, text string) (*tgbotapi.APIResponse, error) {
	return c.send(ctx, methodSendMessage, c.textTimeout, sendMessageRequest{
		ChatID: c.chatID,
		Text:   text,
	})
}

// SendAudio posts an audio reference (URL or file id) to the configured chat.
func (c *Client) SendAudio(ctx context.Context, audioURL string) (*tgbotapi.APIResponse, error) {
	return c.send(ctx, methodSendAudio, c.audioTimeout, sendAudioRequest{
		ChatID: c.chatID,
		Audio:  audioURL,
	})
}

// send issues exactly one request. Any JSON response counts as delivered; the
// ok flag of the response is logged but not treated as a failure.
func (c *Client) send(ctx context.Context, method string, timeout time.Duration, payload any) (*tgbotapi.APIResponse, error) {
	logger := zerolog.Ctx(ctx).With().Str("telegramMethod", method).Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal %s request: %w", ErrDeliveryFailed, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(c.endpoint, c.token, method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s request: %w", ErrDeliveryFailed, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, method, redactToken(err, c.token))
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, classify(ctx, method, fmt.Errorf("failed to read response body: %w", err))
	}

	var apiResp tgbotapi.APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %s returned a non-JSON response with status %d: %w", ErrDeliveryFailed, method, resp.StatusCode, err)
	}

	event := logger.Debug()
	if !apiResp.Ok {
		event = logger.Warn().Int("errorCode", apiResp.ErrorCode).Str("description", apiResp.Description)
	}
	event.Int("httpStatusCode", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Telegram API responded")

	return &apiResp, nil
}

// MessageID returns the id of the message Telegram created, when the response carries one.
func MessageID(resp *tgbotapi.APIResponse) (int, bool) {
	if resp == nil || !resp.Ok || len(resp.Result) == 0 {
		return 0, false
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil || msg.MessageID == 0 {
		return 0, false
	}
	return msg.MessageID, true
}

// redactToken keeps the bot token out of error messages, which embed the request URL.
func redactToken(err error, token string) error {
	if !strings.Contains(err.Error(), token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }
