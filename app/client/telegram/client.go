package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"soapbatch/app/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// MessageHandler receives one inbound unit: plain text, or a voice
// note's file ID with empty text.
type MessageHandler func(chatID int64, text string, voiceFileID string)

type Client struct {
	cfg *config.Config
	api *tgbotapi.BotAPI

	mutex          sync.RWMutex
	messageHandler MessageHandler
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, oops.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Authorized on telegram", "account", api.Self.UserName)

	return &Client{
		cfg: cfg,
		api: api,
	}, nil
}

func (c *Client) SetListener(listener MessageHandler) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.messageHandler = listener
}

// Run long-polls for updates until the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := c.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			c.dispatch(update)
		}
	}
}

func (c *Client) dispatch(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	c.mutex.RLock()
	handler := c.messageHandler
	c.mutex.RUnlock()

	if handler == nil {
		return
	}

	message := update.Message

	var voiceFileID string
	if message.Voice != nil {
		voiceFileID = message.Voice.FileID
	}

	handler(message.Chat.ID, strings.TrimSpace(message.Text), voiceFileID)
}

func (c *Client) SendMessage(chatID int64, text string) error {
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	return nil
}

// DownloadVoice fetches a voice note into a temporary ogg file. The
// caller removes it when done.
func (c *Client) DownloadVoice(ctx context.Context, fileID string) (string, error) {
	fileURL, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve voice file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voice download returned status %d", resp.StatusCode)
	}

	file, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer file.Close()

	if _, err = io.Copy(file, resp.Body); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("failed to save voice file: %w", err)
	}

	return file.Name(), nil
}
