package telegram

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Channel delivers transcripts and notices to a single Telegram chat.
type Channel struct {
	bot      *tgbotapi.BotAPI
	token    string
	chatID   int64
	endpoint string
	client   *http.Client
}

// NewChannel creates a new Telegram channel for chatID. The bot connects
// lazily on the first send.
func NewChannel(token, chatID string) (*Channel, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	return &Channel{
		token:    token,
		chatID:   id,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{},
	}, nil
}

// WithEndpoint points the channel at a different Bot API server.
// endpoint uses the tgbotapi format with %s placeholders for token and method.
func (t *Channel) WithEndpoint(endpoint string, client *http.Client) *Channel {
	t.endpoint = endpoint
	if client != nil {
		t.client = client
	}
	return t
}

func (t *Channel) connect() error {
	if t.bot != nil {
		return nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return fmt.Errorf("failed to init bot: %w", err)
	}
	t.bot = bot
	return nil
}

// Open sends the file at path to the chat as a document.
func (t *Channel) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.connect(); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(path))
	doc.Caption = "📝 " + filepath.Base(path)
	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send transcript: %w", err)
	}
	return nil
}

// SendMessage sends a text notice to the chat.
func (t *Channel) SendMessage(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.connect(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, content)
	_, err := t.bot.Send(msg)
	return err
}
