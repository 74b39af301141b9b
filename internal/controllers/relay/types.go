package relay

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// WebhookAck is the body of every webhook response.
	WebhookAck = "Message forwarded to Telegram"
	// TestMessage is the text sent by the manual test endpoint.
	TestMessage = "Test message from the ElevenLabs relay"
)

// TestRelayResponse is the response of the manual test endpoint.
type TestRelayResponse struct {
	// Success reports whether Telegram answered the test send.
	Success bool `json:"success"`
	// Message is a human readable summary.
	Message string `json:"message"`
	// RelayResponse is Telegram's answer, set on success.
	RelayResponse *tgbotapi.APIResponse `json:"relayResponse,omitempty"`
	// Error describes the failure, set when Success is false.
	Error string `json:"error,omitempty"`
}
