package services

import (
	"testing"

	"github.com/keyoor1989/united-crm-sub004/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChatService(t *testing.T) (*ChatService, db.ChatRepository) {
	t.Helper()

	database := db.SetupTestDB(t)
	chatRepo := db.NewChatRepository(database)
	return NewChatService(chatRepo), chatRepo
}

func TestChatService_Authorize(t *testing.T) {
	service, _ := setupChatService(t)

	chat, err := service.Authorize("100", "Office Group")
	require.NoError(t, err)
	require.NotNil(t, chat)

	assert.Equal(t, "100", chat.ID)
	assert.True(t, chat.Active)
	require.NotNil(t, chat.Preferences)
	assert.True(t, chat.Preferences.ServiceCalls)
	assert.True(t, chat.Preferences.FollowUps)
	assert.False(t, chat.Preferences.InventoryAlerts)
}

func TestChatService_Authorize_IdempotentKeepsPreferences(t *testing.T) {
	service, _ := setupChatService(t)

	_, err := service.Authorize("100", "Office Group")
	require.NoError(t, err)

	// Toggle a preference away from its default, then re-authorize
	require.NoError(t, service.UpdatePreference("100", "inventory_alerts", true))

	again, err := service.Authorize("100", "Renamed Group")
	require.NoError(t, err)

	assert.Equal(t, "Office Group", again.Name)
	require.NotNil(t, again.Preferences)
	assert.True(t, again.Preferences.InventoryAlerts)
}

func TestChatService_Authorize_EmptyID(t *testing.T) {
	service, _ := setupChatService(t)

	_, err := service.Authorize("", "No ID")
	assert.Error(t, err)
}

func TestChatService_SetActive(t *testing.T) {
	service, chatRepo := setupChatService(t)

	_, err := service.Authorize("100", "Office")
	require.NoError(t, err)

	require.NoError(t, service.SetActive("100", false))

	chat, err := chatRepo.GetByID("100")
	require.NoError(t, err)
	assert.False(t, chat.Active)
}

func TestChatService_SetActive_NotFound(t *testing.T) {
	service, _ := setupChatService(t)

	err := service.SetActive("missing", true)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatService_UpdatePreference(t *testing.T) {
	service, chatRepo := setupChatService(t)

	_, err := service.Authorize("100", "Office")
	require.NoError(t, err)

	require.NoError(t, service.UpdatePreference("100", "follow_ups", false))

	prefs, err := chatRepo.GetPreferences("100")
	require.NoError(t, err)
	assert.False(t, prefs.FollowUps)
}

func TestChatService_UpdatePreference_Errors(t *testing.T) {
	service, _ := setupChatService(t)

	_, err := service.Authorize("100", "Office")
	require.NoError(t, err)

	assert.ErrorIs(t, service.UpdatePreference("100", "carrier_pigeon", true), ErrUnknownPreference)
	assert.ErrorIs(t, service.UpdatePreference("missing", "follow_ups", true), ErrChatNotFound)
}

func TestChatService_List(t *testing.T) {
	service, _ := setupChatService(t)

	_, err := service.Authorize("100", "Office")
	require.NoError(t, err)
	_, err = service.Authorize("200", "Warehouse")
	require.NoError(t, err)
	require.NoError(t, service.SetActive("200", false))

	// List includes deactivated chats; they are soft-deleted, not gone
	chats, err := service.List()
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}
