package app

import (
	"fmt"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/DIMO-Network/voice-relay/internal/clients/telegram"
	"github.com/DIMO-Network/voice-relay/internal/config"
	"github.com/DIMO-Network/voice-relay/internal/controllers/relay"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

const (
	// PrimaryWebhookPath is the route the voice service is configured to call.
	PrimaryWebhookPath = "/elevenlabs-webhook"
	// AliasWebhookPath is an alternate spelling served by the same handler.
	AliasWebhookPath = "/eleven-labs-webhook"
	// HealthMessage is the body of the liveness check.
	HealthMessage = "ElevenLabs to Telegram relay is running"
)

// CreateServers builds the Telegram client and the API server from settings.
func CreateServers(settings *config.Settings, logger zerolog.Logger) (*fiber.App, error) {
	telegramClient, err := telegram.New(telegram.Config{
		BotToken:     settings.TelegramBotToken,
		ChatID:       settings.TelegramChatID,
		APIEndpoint:  settings.TelegramAPIEndpoint,
		TextTimeout:  settings.TextTimeout,
		AudioTimeout: settings.AudioTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	relayController := relay.NewRelayController(telegramClient, settings.TextPrefix)
	return CreateFiberApp(logger, relayController), nil
}

// CreateFiberApp sets up the API routes.
func CreateFiberApp(logger zerolog.Logger, relayController *relay.RelayController) *fiber.App {
	logger.Info().Msg("Starting ElevenLabs relay...")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fiberrecover.New())
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(HealthMessage)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	logger.Info().Msg("Registering routes...")

	// Both spellings are bound to the same handler.
	app.Post(PrimaryWebhookPath, relayController.HandleWebhook)
	app.Post(AliasWebhookPath, relayController.HandleWebhook)

	app.Get("/test-relay", relayController.TestRelay)

	return app
}
