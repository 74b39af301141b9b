package relay

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/DIMO-Network/voice-relay/internal/clients/telegram"
	"github.com/DIMO-Network/voice-relay/internal/metrics"
	"github.com/DIMO-Network/voice-relay/internal/payload"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sender delivers messages to the destination chat.
type Sender interface {
	SendText(ctx context.Context, text string) (*tgbotapi.APIResponse, error)
	SendAudio(ctx context.Context, audioURL string) (*tgbotapi.APIResponse, error)
}

// RelayController forwards voice-service webhooks to Telegram.
type RelayController struct {
	sender     Sender
	textPrefix string
}

// NewRelayController creates a new RelayController. textPrefix is prepended to
// extracted text before it is relayed; the fallback text is sent as is.
func NewRelayController(sender Sender, textPrefix string) *RelayController {
	return &RelayController{
		sender:     sender,
		textPrefix: textPrefix,
	}
}

// HandleWebhook godoc
// @Summary      Relay a voice-service webhook
// @Description  Extracts text and an audio reference from an arbitrary body and relays them to the configured Telegram chat. Always answers 200 so the sender does not retry.
// @Tags         Webhooks
// @Accept       json,plain
// @Produce      plain
// @Success      200  {string}  string  "Message forwarded to Telegram"
// @Router       /elevenlabs-webhook [post]
func (r *RelayController) HandleWebhook(c *fiber.Ctx) (err error) {
	logger := zerolog.Ctx(c.UserContext()).With().
		Str("requestId", uuid.New().String()).
		Str("route", c.Route().Path).
		Logger()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("Recovered while handling webhook")
			err = c.Status(fiber.StatusOK).SendString(WebhookAck)
		}
	}()

	msg := payload.Normalize(c.Body())
	metrics.WebhooksReceived.WithLabelValues(c.Route().Path, string(msg.Shape)).Inc()
	logger.Info().
		Str("shape", string(msg.Shape)).
		Str("textSource", msg.TextSource).
		Str("audioSource", msg.AudioSource).
		Bool("hasText", msg.HasText()).
		Bool("hasAudio", msg.HasAudio()).
		Msg("Webhook received")

	r.relay(logger.WithContext(c.UserContext()), msg)

	return c.Status(fiber.StatusOK).SendString(WebhookAck)
}

// TestRelay godoc
// @Summary      Send a test message
// @Description  Sends a fixed diagnostic message to the configured Telegram chat and reports the outcome.
// @Tags         Diagnostics
// @Produce      json
// @Success      200  {object}  TestRelayResponse
// @Failure      500  {object}  TestRelayResponse
// @Router       /test-relay [get]
func (r *RelayController) TestRelay(c *fiber.Ctx) error {
	resp, err := r.sender.SendText(c.UserContext(), TestMessage)
	if err != nil {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("Test relay failed")
		return c.Status(fiber.StatusInternalServerError).JSON(TestRelayResponse{
			Success: false,
			Message: "Failed to send test message",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(TestRelayResponse{
		Success:       true,
		Message:       "Test message sent to Telegram",
		RelayResponse: resp,
	})
}

// relay sends the text and the audio concurrently. Each send has its own
// deadline and its failure does not affect the other.
func (r *RelayController) relay(ctx context.Context, msg payload.ExtractedMessage) {
	var group errgroup.Group
	if msg.HasText() {
		text := msg.Text
		if !msg.IsFallback() {
			text = r.textPrefix + text
		}
		group.Go(func() error {
			r.relayOne(ctx, metrics.KindText, func(ctx context.Context) (*tgbotapi.APIResponse, error) {
				return r.sender.SendText(ctx, text)
			})
			return nil
		})
	}
	if msg.HasAudio() {
		group.Go(func() error {
			r.relayOne(ctx, metrics.KindAudio, func(ctx context.Context) (*tgbotapi.APIResponse, error) {
				return r.sender.SendAudio(ctx, msg.AudioURL)
			})
			return nil
		})
	}
	_ = group.Wait()
}

func (r *RelayController) relayOne(ctx context.Context, kind string, send func(context.Context) (*tgbotapi.APIResponse, error)) {
	logger := zerolog.Ctx(ctx).With().Str("relayKind", kind).Logger()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.ObserveRelay(kind, metrics.OutcomeFailed, time.Since(start).Seconds())
			logger.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("Recovered from relay call")
		}
	}()

	resp, err := send(ctx)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if telegram.IsTimeout(err) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.ObserveRelay(kind, outcome, elapsed.Seconds())
		logger.Error().Err(err).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("Failed to relay to Telegram")
		return
	}

	metrics.ObserveRelay(kind, metrics.OutcomeSuccess, elapsed.Seconds())
	event := logger.Info().Bool("telegramOk", resp != nil && resp.Ok).Dur("elapsed", elapsed)
	if id, ok := telegram.MessageID(resp); ok {
		event = event.Int("messageId", id)
	}
	event.Msg("Relayed to Telegram")
}
