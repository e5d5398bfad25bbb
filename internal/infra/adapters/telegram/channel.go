package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatChannel = (*Channel)(nil)

// Channel implements the ChatChannel port on top of the Bot API client.
type Channel struct {
	bot *tgbotapi.BotAPI
}

func NewChannel(bot *tgbotapi.BotAPI) *Channel { return &Channel{bot: bot} }

// Connect authenticates against the Bot API and returns the channel. The
// polling bot is built on top of the same client later.
func Connect(token string) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewChannel(bot), nil
}

func buildMarkup(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

func (c *Channel) SendMessage(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := buildMarkup(rows); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Channel) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = buildMarkup(rows)
	_, err := c.bot.Send(edit)
	return err
}

func (c *Channel) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *Channel) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, rows [][]adapter.InlineButton) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := buildMarkup(rows); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Channel) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := c.bot.Request(cb)
	return err
}

func (c *Channel) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", err
	}
	return f.Link(c.bot.Token), nil
}
