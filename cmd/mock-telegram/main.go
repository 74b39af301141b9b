// Command mock-telegram is a local stand-in for the Telegram Bot API. Point
// TELEGRAM_API_ENDPOINT at it (http://localhost:4001/bot%s/%s) to run the relay
// end to end without a real bot.
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/DIMO-Network/server-garage/pkg/logging"
	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func main() {
	logger := logging.GetAndSetDefaultLogger("mock-telegram")
	port := flag.Int("port", 4001, "port to listen on")
	delay := flag.Duration("delay", 0, "delay before every response, to exercise relay timeouts")
	flag.Parse()

	app := newApp(*delay)
	logger.Info().Str("port", strconv.Itoa(*port)).Msg("Mock Telegram API listening")
	if err := app.Listen(":" + strconv.Itoa(*port)); err != nil {
		logger.Fatal().Err(err).Msg("Mock Telegram API failed")
	}
}

func newApp(delay time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	var messageID atomic.Int64
	app.Post("/*", func(c *fiber.Ctx) error {
		method, err := botMethod(c.Path())
		if err != nil {
			return err
		}
		body := c.Body()
		zerolog.Ctx(c.UserContext()).Info().
			Str("method", method).
			RawJSON("payload", jsonOrString(body)).
			Msg("Mock Telegram received call")

		if delay > 0 {
			time.Sleep(delay)
		}

		chatID := gjson.GetBytes(body, "chat_id")
		if chatID.String() == "" {
			return c.Status(fiber.StatusBadRequest).Type("json").Send(
				errorResponse(fiber.StatusBadRequest, "Bad Request: chat_id is empty"))
		}

		resp, err := successResponse(method, messageID.Add(1), chatID, body)
		if err != nil {
			return err
		}
		return c.Type("json").Send(resp)
	})

	return app
}

// botMethod extracts the method from a /bot<token>/<method> path.
func botMethod(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "/bot")
	token, method, found := strings.Cut(rest, "/")
	if !ok || !found || token == "" || method == "" {
		return "", richerrors.Error{
			Code:        fiber.StatusNotFound,
			ExternalMsg: "Not Found",
			Err:         fmt.Errorf("unexpected path %q", path),
		}
	}
	switch method {
	case "sendMessage", "sendAudio":
		return method, nil
	default:
		return "", richerrors.Error{
			Code:        fiber.StatusNotFound,
			ExternalMsg: "Not Found: method not found",
			Err:         fmt.Errorf("unsupported method %q", method),
		}
	}
}

func successResponse(method string, id int64, chatID gjson.Result, body []byte) ([]byte, error) {
	resp := []byte(`{"ok":true,"result":{}}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			resp, err = sjson.SetBytes(resp, path, value)
		}
	}
	set("result.message_id", id)
	set("result.date", time.Now().Unix())
	// Telegram resolves chat ids to integers; usernames are echoed back as is.
	if n, parseErr := strconv.ParseInt(chatID.String(), 10, 64); parseErr == nil {
		set("result.chat.id", n)
	} else {
		set("result.chat.id", chatID.String())
	}
	set("result.chat.type", "private")
	switch method {
	case "sendMessage":
		set("result.text", gjson.GetBytes(body, "text").String())
	case "sendAudio":
		set("result.audio.file_id", fmt.Sprintf("mock-audio-%d", id))
		set("result.audio.file_unique_id", fmt.Sprintf("mock-%d", id))
		set("result.audio.duration", 0)
		set("result.caption", gjson.GetBytes(body, "audio").String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s response: %w", method, err)
	}
	return resp, nil
}

func errorResponse(code int, description string) []byte {
	resp, _ := sjson.SetBytes([]byte(`{"ok":false}`), "error_code", code)
	resp, _ = sjson.SetBytes(resp, "description", description)
	return resp
}

func jsonOrString(body []byte) []byte {
	if gjson.ValidBytes(body) {
		return body
	}
	quoted, _ := sjson.SetBytes([]byte(`{}`), "raw", string(body))
	return quoted
}
