package services

import (
	"context"
	"errors"
	"testing"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingressEnv struct {
	service      *UpdateService
	chatRepo     db.ChatRepository
	logRepo      db.MessageLogRepository
	settingsRepo db.SettingsRepository
	api          *fakeTelegramAPI
}

func setupIngress(t *testing.T) *ingressEnv {
	t.Helper()

	database := db.SetupTestDB(t)
	chatRepo := db.NewChatRepository(database)
	logRepo := db.NewMessageLogRepository(database)
	settingsRepo := db.NewSettingsRepository(database)
	customerRepo := db.NewCustomerRepository(database)
	api := newFakeTelegramAPI()

	router := NewCommandRouter(customerRepo, logRepo, api)
	service := NewUpdateService(chatRepo, logRepo, settingsRepo, router, api)

	return &ingressEnv{
		service:      service,
		chatRepo:     chatRepo,
		logRepo:      logRepo,
		settingsRepo: settingsRepo,
		api:          api,
	}
}

func textUpdate(updateID, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: updateID,
			Chat:      telegram.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func enablePolling(t *testing.T, settingsRepo db.SettingsRepository) {
	t.Helper()

	settings, err := settingsRepo.Get()
	require.NoError(t, err)
	settings.Mode = models.ModePolling
	require.NoError(t, settingsRepo.Update(settings))
}

func TestUpdateService_ProcessUpdate_UnauthorizedChat(t *testing.T) {
	env := setupIngress(t)

	err := env.service.ProcessUpdate(context.Background(), textUpdate(1, 999, "/help"))
	require.NoError(t, err)

	// Only the fixed rejection reply goes out, never the command result
	require.Len(t, env.api.sent, 1)
	assert.Equal(t, unauthorizedReply, env.api.sent[0].Text)
	assert.Equal(t, "999", env.api.sent[0].ChatID)

	entries, err := env.logRepo.ListByChat("999", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.DirectionOutgoing, entries[0].Direction)
	assert.Equal(t, models.CategoryReply, entries[0].Category)
}

func TestUpdateService_ProcessUpdate_DeactivatedChat(t *testing.T) {
	env := setupIngress(t)

	require.NoError(t, env.chatRepo.Create(models.NewChat("999", "Revoked")))
	require.NoError(t, env.chatRepo.SetActive("999", false))

	err := env.service.ProcessUpdate(context.Background(), textUpdate(1, 999, "/help"))
	require.NoError(t, err)

	require.Len(t, env.api.sent, 1)
	assert.Equal(t, unauthorizedReply, env.api.sent[0].Text)
}

func TestUpdateService_ProcessUpdate_AuthorizedCommand(t *testing.T) {
	env := setupIngress(t)

	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	err := env.service.ProcessUpdate(context.Background(), textUpdate(1, 100, "/help"))
	require.NoError(t, err)

	require.Len(t, env.api.sent, 1)
	assert.Equal(t, helpReply, env.api.sent[0].Text)

	// Inbound row is written before the reply row
	entries, err := env.logRepo.ListByChat("100", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var inbound *models.MessageLogEntry
	for _, entry := range entries {
		if entry.Direction == models.DirectionIncoming {
			inbound = entry
		}
	}
	require.NotNil(t, inbound)
	assert.Equal(t, models.CategoryCommand, inbound.Category)
	assert.Equal(t, models.StatusReceived, inbound.Status)
	assert.Equal(t, "/help", inbound.Text)
}

func TestUpdateService_ProcessUpdate_FreeTextCategory(t *testing.T) {
	env := setupIngress(t)

	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	err := env.service.ProcessUpdate(context.Background(), textUpdate(1, 100, "hello there"))
	require.NoError(t, err)

	entries, err := env.logRepo.ListByChat("100", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		if entry.Direction == models.DirectionIncoming {
			assert.Equal(t, models.CategoryMessage, entry.Category)
		}
	}
}

func TestUpdateService_ProcessUpdate_IgnoresEmptyUpdates(t *testing.T) {
	env := setupIngress(t)

	require.NoError(t, env.service.ProcessUpdate(context.Background(), telegram.Update{UpdateID: 1}))
	require.NoError(t, env.service.ProcessUpdate(context.Background(), textUpdate(2, 100, "")))

	assert.Empty(t, env.api.sent)
}

func TestUpdateService_ProcessBatch_PollingDisabled(t *testing.T) {
	env := setupIngress(t)

	_, err := env.service.ProcessBatch(context.Background())
	assert.ErrorIs(t, err, ErrPollingDisabled)
}

func TestUpdateService_ProcessBatch_PersistsOffsetAfterBatch(t *testing.T) {
	env := setupIngress(t)
	enablePolling(t, env.settingsRepo)

	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	env.api.updates = []telegram.Update{
		textUpdate(7, 100, "/start"),
		textUpdate(8, 100, "/help"),
	}

	result, err := env.service.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Updates)
	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, int64(8), result.LastUpdateID)

	// Fetch started after the stored offset
	assert.Equal(t, int64(1), env.api.lastOffset)

	settings, err := env.settingsRepo.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(8), settings.LastUpdateID)

	// The next batch resumes after the persisted offset
	env.api.updates = nil
	_, err = env.service.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), env.api.lastOffset)
}

func TestUpdateService_ProcessBatch_ContinuesAfterFailure(t *testing.T) {
	env := setupIngress(t)
	enablePolling(t, env.settingsRepo)

	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))
	require.NoError(t, env.chatRepo.Create(models.NewChat("200", "Broken")))
	env.api.failChats["200"] = errors.New("chat not reachable")

	env.api.updates = []telegram.Update{
		textUpdate(10, 200, "/help"),
		textUpdate(11, 100, "/help"),
	}

	result, err := env.service.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)

	// Offset still advances past the failed update; redelivery is handled
	// by idempotent command handlers, not by replaying the offset
	settings, err := env.settingsRepo.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(11), settings.LastUpdateID)
}

func TestUpdateService_ProcessBatch_FetchFailureKeepsOffset(t *testing.T) {
	env := setupIngress(t)
	enablePolling(t, env.settingsRepo)

	env.api.updatesErr = errors.New("telegram unreachable")

	_, err := env.service.ProcessBatch(context.Background())
	assert.Error(t, err)

	settings, err := env.settingsRepo.Get()
	require.NoError(t, err)
	assert.Zero(t, settings.LastUpdateID)
}

func TestUpdateService_ProcessBatch_EmptyBatch(t *testing.T) {
	env := setupIngress(t)
	enablePolling(t, env.settingsRepo)

	result, err := env.service.ProcessBatch(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Updates)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.LastUpdateID)
}
