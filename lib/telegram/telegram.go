// Package telegram implements notify.Channel on the Telegram Bot API: the
// transport approvers and requesters actually talk through.
package telegram

import (
	"context"
	"fmt"

	"github.com/Possessed66/BotLMKRD/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Client struct {
	bot *tgbotapi.BotAPI
}

func New(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	logrus.WithField("account", bot.Self.UserName).Info("Telegram bot authorized")
	return &Client{bot: bot}, nil
}

func (c *Client) Send(ctx context.Context, recipient int64, text string, actions ...notify.Action) (notify.MessageRef, error) {
	msg := tgbotapi.NewMessage(recipient, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(actions) > 0 {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, a := range actions {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons)
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return notify.MessageRef{}, fmt.Errorf("telegram send to %d: %w", recipient, err)
	}
	return notify.MessageRef{Chat: recipient, MessageID: sent.MessageID}, nil
}

func (c *Client) Edit(ctx context.Context, ref notify.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.Chat, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := c.bot.Send(edit); err != nil {
		return fmt.Errorf("telegram edit %s: %w", ref, err)
	}
	return nil
}
