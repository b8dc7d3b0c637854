// Package notify delivers location reports over Telegram.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"linecheck/internal/model"
	"linecheck/internal/repository"
	"linecheck/internal/service"
)

// TelegramNotifier sends daily checklist summaries to each location's chat.
type TelegramNotifier struct {
	api       *tgbotapi.BotAPI
	locations *repository.LocationRepository
	reminders *service.ReminderService
}

func NewTelegramNotifier(token string, locations *repository.LocationRepository, reminders *service.ReminderService) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] notifier authorized on account %s", api.Self.UserName)

	return &TelegramNotifier{api: api, locations: locations, reminders: reminders}, nil
}

// SendDailyReports delivers a summary to every location with a chat
// configured. Per-location failures are logged and do not stop the run.
func (n *TelegramNotifier) SendDailyReports(ctx context.Context) error {
	locations, err := n.locations.ListNotifiable(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}

	now := time.Now()
	for i := range locations {
		if err := n.sendReport(ctx, &locations[i], now); err != nil {
			log.Printf("[warn] report for location %d: %v", locations[i].ID, err)
		}
	}
	return nil
}

func (n *TelegramNotifier) sendReport(ctx context.Context, location *model.Location, now time.Time) error {
	summary, err := n.reminders.DailySummary(ctx, location, now)
	if err != nil {
		return err
	}
	if summary == "" {
		return nil
	}
	return n.sendText(location.NotifyChatID, summary)
}

func (n *TelegramNotifier) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
