package services

import (
	"context"
	"sync"

	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
)

// fakeTelegramAPI records provider calls and injects failures per chat.
type fakeTelegramAPI struct {
	mu sync.Mutex

	sent      []sentMessage
	failChats map[string]error

	updates    []telegram.Update
	updatesErr error
	lastOffset int64

	setWebhookErr error
	webhookURL    string
	webhookSecret string

	deleteWebhookErr error
	deleteCalls      int

	setCommandsErr error
	commands       []telegram.BotCommand
}

type sentMessage struct {
	ChatID string
	Text   string
}

func newFakeTelegramAPI() *fakeTelegramAPI {
	return &fakeTelegramAPI{failChats: map[string]error{}}
}

func (f *fakeTelegramAPI) SendMessage(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failChats[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeTelegramAPI) GetUpdates(_ context.Context, offset int64) ([]telegram.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastOffset = offset
	if f.updatesErr != nil {
		return nil, f.updatesErr
	}
	return f.updates, nil
}

func (f *fakeTelegramAPI) SetWebhook(_ context.Context, url, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setWebhookErr != nil {
		return f.setWebhookErr
	}
	f.webhookURL = url
	f.webhookSecret = secret
	return nil
}

func (f *fakeTelegramAPI) DeleteWebhook(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	return f.deleteWebhookErr
}

func (f *fakeTelegramAPI) SetMyCommands(_ context.Context, commands []telegram.BotCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setCommandsErr != nil {
		return f.setCommandsErr
	}
	f.commands = commands
	return nil
}

func (f *fakeTelegramAPI) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	texts := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		texts = append(texts, m.Text)
	}
	return texts
}
