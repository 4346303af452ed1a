package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig configures a TelegramSender. ChatID is a numeric chat id or
// an "@channel" username.
type TelegramConfig struct {
	Token      string
	ChatID     string
	Endpoint   string // defaults to tgbotapi.APIEndpoint
	MaxRetries int
	RetryDelay time.Duration
}

// TelegramSender delivers notifications via the Telegram Bot API.
type TelegramSender struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	channel    string
	maxRetries int
	retryDelay time.Duration
}

// NewTelegramSender authenticates the bot (getMe) and resolves the chat.
func NewTelegramSender(cfg TelegramConfig) (*TelegramSender, error) {
	token := strings.TrimSpace(cfg.Token)
	chat := strings.TrimSpace(cfg.ChatID)
	if token == "" || chat == "" {
		return nil, errors.New("telegram: token and chat id are required")
	}

	t := &TelegramSender{
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	if t.maxRetries <= 0 {
		t.maxRetries = 3
	}
	if t.retryDelay <= 0 {
		t.retryDelay = time.Second
	}

	if strings.HasPrefix(chat, "@") {
		t.channel = chat
	} else {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram: invalid chat id %q: %w", chat, err)
		}
		t.chatID = id
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	return t, nil
}

// Send posts title and message as one plain-text message, retrying with a
// linear backoff.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := message
	if title != "" {
		text = title + "\n\n" + message
	}

	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram: %w", ctx.Err())
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("telegram: failed after %d attempts: %w", t.maxRetries, lastErr)
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
