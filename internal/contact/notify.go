package contact

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Notifier tells staff that a new message arrived.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// LogNotifier is used when no Telegram bot is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, m Message) error {
	log.Printf("contact: new message #%d from %s <%s> (%s)", m.ID, m.Name, m.Email, m.Direction.label())
	return nil
}

// TelegramNotifier posts a summary of each message to a staff chat.
type TelegramNotifier struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegramNotifier builds an offline bot: it only sends, never polls.
// apiURL may be empty for the public Telegram API.
func NewTelegramNotifier(token string, chatID int64, apiURL string) (*TelegramNotifier, error) {
	bot, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramNotifier{bot: bot, chat: &tele.Chat{ID: chatID}}, nil
}

func (n *TelegramNotifier) Notify(_ context.Context, m Message) error {
	if _, err := n.bot.Send(n.chat, FormatNotification(m), tele.ModeHTML); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// FormatNotification renders m as Telegram HTML.
func FormatNotification(m Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Новая заявка #%d</b>\n", m.ID)
	fmt.Fprintf(&b, "Имя: %s\n", html.EscapeString(m.Name))
	if m.Company != "" {
		fmt.Fprintf(&b, "Компания: %s\n", html.EscapeString(m.Company))
	}
	fmt.Fprintf(&b, "Email: %s\n", html.EscapeString(m.Email))
	fmt.Fprintf(&b, "Телефон: %s\n", html.EscapeString(m.Phone))
	fmt.Fprintf(&b, "Направление: %s\n\n", m.Direction.label())
	b.WriteString(html.EscapeString(m.Message))
	return b.String()
}
