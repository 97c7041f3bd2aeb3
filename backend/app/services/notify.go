package services

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"servermon/backend/global"
)

// Notifier pushes alert text to an external channel. Nil notifier means
// dashboards only.
type Notifier interface {
	Notify(severity, message string)
}

// TelegramNotifier posts alerts to a chat via the Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	client   *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Notify(severity, message string) {
	go func() {
		text := fmt.Sprintf("[%s] %s", severity, message)
		endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
		resp, err := t.client.PostForm(endpoint, url.Values{
			"chat_id": {t.ChatID},
			"text":    {text},
		})
		if err != nil {
			global.Logger.Warn().Err(err).Msg("telegram notify failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			global.Logger.Warn().Int("status", resp.StatusCode).Msg("telegram notify rejected")
		}
	}()
}
