package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/market"
)

// Notifier delivers a rendered message to a sink.
type Notifier interface {
	Send(ctx context.Context, creds market.TelegramSettings, text string) error
}

// TelegramNotifier posts HTML messages through the Telegram Bot API.
type TelegramNotifier struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewTelegramNotifier builds a notifier against baseURL (the public API when empty).
func NewTelegramNotifier(baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Send calls sendMessage. Every failure wraps market.ErrDispatch.
func (n *TelegramNotifier) Send(ctx context.Context, creds market.TelegramSettings, text string) error {
	if creds.BotToken == "" || creds.ChatID == "" {
		return fmt.Errorf("%w: telegram credentials missing", market.ErrDispatch)
	}

	payload := map[string]string{
		"chat_id":    creds.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal telegram payload: %v", market.ErrDispatch, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, creds.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create telegram request: %v", market.ErrDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send telegram request: %v", market.ErrDispatch, redact(err, creds.BotToken))
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: telegram status %d %s", market.ErrDispatch, resp.StatusCode, result.Description)
	}
	if decodeErr == nil && !result.OK {
		return fmt.Errorf("%w: telegram returned ok=false: %s", market.ErrDispatch, result.Description)
	}

	n.logger.Debug().Str("chat_id", creds.ChatID).Msg("telegram message sent")
	return nil
}

// redact strips the bot token from transport errors, which embed the request URL.
func redact(err error, token string) string {
	msg := err.Error()
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, token, "<redacted>")
}

var _ Notifier = (*TelegramNotifier)(nil)
