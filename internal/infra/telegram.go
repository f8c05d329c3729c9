package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TelegramClient sends chat messages through the Telegram Bot API.
type TelegramClient struct {
	apiURL     string
	token      string
	chatID     string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

// NewTelegramClient returns nil when the bot token or chat id is missing.
func NewTelegramClient(apiURL, token, chatID string, cb *CircuitBreaker) *TelegramClient {
	if token == "" || chatID == "" {
		return nil
	}
	return &TelegramClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    cb,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessage posts text to the configured chat.
func (t *TelegramClient) SendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(telegramMessage{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)

	return t.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("telegram: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("telegram: unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram: returned %d", resp.StatusCode)
		}
		return nil
	})
}
