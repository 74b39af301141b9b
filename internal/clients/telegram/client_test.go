package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:test-token"

func newTestClient(t *testing.T, serverURL string, mod func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BotToken:    testToken,
		ChatID:      "6668840327",
		APIEndpoint: serverURL + "/bot%s/%s",
	}
	if mod != nil {
		mod(&cfg)
	}
	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		client, err := New(Config{BotToken: testToken, ChatID: "1"})
		require.NoError(t, err)
		assert.Equal(t, tgbotapi.APIEndpoint, client.endpoint)
		assert.Equal(t, 10*time.Second, client.textTimeout)
		assert.Equal(t, 20*time.Second, client.audioTimeout)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := New(Config{ChatID: "1"})
		require.Error(t, err)
	})

	t.Run("missing chat id", func(t *testing.T) {
		_, err := New(Config{BotToken: testToken})
		require.Error(t, err)
	})

	t.Run("endpoint without verbs", func(t *testing.T) {
		_, err := New(Config{BotToken: testToken, ChatID: "1", APIEndpoint: "http://localhost/bot"})
		require.Error(t, err)
	})
}

func TestClient_SendText(t *testing.T) {
	t.Parallel()

	t.Run("successful delivery", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var req sendMessageRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "6668840327", req.ChatID)
			assert.Equal(t, "hello", req.Text)

			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprint(w, `{"ok":true,"result":{"message_id":77,"date":1700000000,"chat":{"id":6668840327,"type":"private"},"text":"hello"}}`)
		}))
		defer testServer.Close()

		client := newTestClient(t, testServer.URL, nil)
		resp, err := client.SendText(context.Background(), "hello")
		require.NoError(t, err)
		assert.True(t, resp.Ok)

		id, ok := MessageID(resp)
		assert.True(t, ok)
		assert.Equal(t, 77, id)
	})

	t.Run("ok false response is still delivered", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		}))
		defer testServer.Close()

		client := newTestClient(t, testServer.URL, nil)
		resp, err := client.SendText(context.Background(), "hello")
		require.NoError(t, err)
		assert.False(t, resp.Ok)
		assert.Equal(t, 400, resp.ErrorCode)
		assert.Equal(t, "Bad Request: chat not found", resp.Description)

		_, ok := MessageID(resp)
		assert.False(t, ok)
	})

	t.Run("non JSON response", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = fmt.Fprint(w, "<html>bad gateway</html>")
		}))
		defer testServer.Close()

		client := newTestClient(t, testServer.URL, nil)
		resp, err := client.SendText(context.Background(), "hello")
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, IsDeliveryFailed(err))
		assert.False(t, IsTimeout(err))
	})

	t.Run("network connection failure", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		serverURL := testServer.URL
		testServer.Close()

		client := newTestClient(t, serverURL, nil)
		_, err := client.SendText(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, IsDeliveryFailed(err))
		assert.NotContains(t, err.Error(), testToken)
	})

	t.Run("request timeout", func(t *testing.T) {
		release := make(chan struct{})
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer testServer.Close()
		defer close(release)

		client := newTestClient(t, testServer.URL, func(cfg *Config) {
			cfg.TextTimeout = 20 * time.Millisecond
		})
		start := time.Now()
		_, err := client.SendText(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
		assert.False(t, IsDeliveryFailed(err))
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("http client timeout", func(t *testing.T) {
		release := make(chan struct{})
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer testServer.Close()
		defer close(release)

		client := newTestClient(t, testServer.URL, func(cfg *Config) {
			cfg.HTTPClient = &http.Client{Timeout: 10 * time.Millisecond}
		})
		_, err := client.SendText(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
	})

	t.Run("context cancellation", func(t *testing.T) {
		release := make(chan struct{})
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer testServer.Close()
		defer close(release)

		client := newTestClient(t, testServer.URL, nil)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := client.SendText(ctx, "hello")
		require.Error(t, err)
		assert.True(t, IsDeliveryFailed(err))
		assert.False(t, IsTimeout(err))
	})
}

func TestClient_SendAudio(t *testing.T) {
	t.Parallel()

	t.Run("successful delivery", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bot"+testToken+"/sendAudio", r.URL.Path)

			var req sendAudioRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "6668840327", req.ChatID)
			assert.Equal(t, "http://x/a.mp3", req.Audio)

			_, _ = fmt.Fprint(w, `{"ok":true,"result":{"message_id":78}}`)
		}))
		defer testServer.Close()

		client := newTestClient(t, testServer.URL, nil)
		resp, err := client.SendAudio(context.Background(), "http://x/a.mp3")
		require.NoError(t, err)
		assert.True(t, resp.Ok)
	})

	t.Run("audio uses its own timeout", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			_, _ = fmt.Fprint(w, `{"ok":true}`)
		}))
		defer testServer.Close()

		client := newTestClient(t, testServer.URL, func(cfg *Config) {
			cfg.TextTimeout = 10 * time.Millisecond
			cfg.AudioTimeout = 2 * time.Second
		})

		_, err := client.SendAudio(context.Background(), "http://x/a.mp3")
		require.NoError(t, err)

		_, err = client.SendText(context.Background(), "hello")
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
	})
}
