package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reeeportnewsss/nww/pkg/config"
)

// Notifier defines the interface for a Telegram notifier.
type Notifier interface {
	// SendMessage delivers an HTML-formatted text to chatID, which is either a numeric
	// chat id or an "@channel" username.
	SendMessage(ctx context.Context, chatID string, text string) error
}

// client is an implementation of Notifier.
type client struct {
	bot *tgbotapi.BotAPI
}

// NewClient creates a new Telegram notifier client. It makes no network call, so an
// invalid token or an unreachable API surfaces on the first SendMessage.
func NewClient(cfg config.Telegram) (Notifier, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	bot := &tgbotapi.BotAPI{
		Token:  cfg.BotToken,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return &client{bot: bot}, nil
}

// SendMessage sends a message to the given Telegram chat.
func (c *client) SendMessage(ctx context.Context, chatID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(chatID, text)
	if err != nil {
		return err
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

func newMessage(chatID string, text string) (tgbotapi.MessageConfig, error) {
	chatID = strings.TrimSpace(chatID)
	if strings.HasPrefix(chatID, "@") {
		return tgbotapi.NewMessageToChannel(chatID, text), nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	return tgbotapi.NewMessage(id, text), nil
}
