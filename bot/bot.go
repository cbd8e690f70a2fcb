// Package bot handles Telegram updates: member search commands, admin
// membership commands, and the buttons that turn a search result into a
// one-time download link.
package bot

import (
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/minkhant/sandaya/models"
	"github.com/minkhant/sandaya/token"
	"golang.org/x/exp/slog"
)

// Config carries the deployment knobs the bot needs to compose replies.
type Config struct {
	// BaseURL is the public base URL of the gateway, without a trailing
	// slash. Download links are built against it.
	BaseURL string

	// AdminID is the Telegram id allowed to run membership commands.
	AdminID int64

	// Token TTLs, quoted in the link messages.
	SongTTL  time.Duration
	AlbumTTL time.Duration
}

type Bot struct {
	api    *tgbotapi.BotAPI
	env    *models.Env
	tokens token.Store
	cfg    Config
}

func New(api *tgbotapi.BotAPI, env *models.Env, tokens token.Store, cfg Config) *Bot {
	return &Bot{
		api:    api,
		env:    env,
		tokens: tokens,
		cfg:    cfg,
	}
}

func (b *Bot) log() *slog.Logger {
	return b.env.Log()
}

// WebhookHandler ingests updates pushed by Telegram. It always answers
// 200; Telegram redelivers on anything else and every failure here is
// terminal for the update anyway.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.log().Error("webhook decode failed", "err", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		b.Handle(&update)
		w.WriteHeader(http.StatusOK)
	}
}

// Poll long-polls Telegram for updates until the context is canceled.
// Used for local runs where no public webhook URL exists.
func (b *Bot) Poll(done <-chan struct{}) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-done:
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Handle(&update)
		}
	}
}

// Handle dispatches a single update.
func (b *Bot) Handle(update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log().Error("telegram send failed", "err", err)
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	b.send(out)
}
