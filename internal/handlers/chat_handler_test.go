package handlers

import (
	"net/http"
	"testing"

	"github.com/keyoor1989/united-crm-sub004/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHandler_Authorize(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/chats",
		models.AuthorizeChatRequest{ChatID: "100", Name: "Office Group"}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "100", body["id"])
	assert.Equal(t, true, body["active"])
	require.NotNil(t, body["preferences"])
}

func TestChatHandler_Authorize_Idempotent(t *testing.T) {
	env := setupHandlerEnv(t)

	first := env.doJSON(t, http.MethodPost, "/api/chats",
		models.AuthorizeChatRequest{ChatID: "100", Name: "Office Group"}, nil)
	require.Equal(t, http.StatusCreated, first.Code)

	again := env.doJSON(t, http.MethodPost, "/api/chats",
		models.AuthorizeChatRequest{ChatID: "100", Name: "Renamed"}, nil)
	require.Equal(t, http.StatusCreated, again.Code)

	body := decodeBody(t, again)
	assert.Equal(t, "Office Group", body["name"])
}

func TestChatHandler_Authorize_MissingChatID(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.doRaw(t, http.MethodPost, "/api/chats", `{"name":"no id"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_SetActive(t *testing.T) {
	env := setupHandlerEnv(t)
	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	inactive := false
	w := env.doJSON(t, http.MethodPut, "/api/chats/100/active",
		models.SetActiveRequest{Active: &inactive}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	chat, err := env.chatRepo.GetByID("100")
	require.NoError(t, err)
	assert.False(t, chat.Active)
}

func TestChatHandler_SetActive_NotFound(t *testing.T) {
	env := setupHandlerEnv(t)

	active := true
	w := env.doJSON(t, http.MethodPut, "/api/chats/missing/active",
		models.SetActiveRequest{Active: &active}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatHandler_SetActive_MissingFlag(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.doRaw(t, http.MethodPut, "/api/chats/100/active", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_UpdatePreference(t *testing.T) {
	env := setupHandlerEnv(t)
	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	value := true
	w := env.doJSON(t, http.MethodPut, "/api/chats/100/preferences",
		models.UpdatePreferenceRequest{Field: "inventory_alerts", Value: &value}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	prefs, err := env.chatRepo.GetPreferences("100")
	require.NoError(t, err)
	assert.True(t, prefs.InventoryAlerts)
}

func TestChatHandler_UpdatePreference_Errors(t *testing.T) {
	env := setupHandlerEnv(t)
	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))

	value := true

	tests := []struct {
		name     string
		path     string
		req      models.UpdatePreferenceRequest
		wantCode int
	}{
		{
			name:     "unknown field",
			path:     "/api/chats/100/preferences",
			req:      models.UpdatePreferenceRequest{Field: "carrier_pigeon", Value: &value},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown chat",
			path:     "/api/chats/missing/preferences",
			req:      models.UpdatePreferenceRequest{Field: "follow_ups", Value: &value},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing value",
			path:     "/api/chats/100/preferences",
			req:      models.UpdatePreferenceRequest{Field: "follow_ups"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPut, tt.path, tt.req, nil)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestChatHandler_List(t *testing.T) {
	env := setupHandlerEnv(t)
	require.NoError(t, env.chatRepo.Create(models.NewChat("100", "Office")))
	require.NoError(t, env.chatRepo.Create(models.NewChat("200", "Warehouse")))

	w := env.doJSON(t, http.MethodGet, "/api/chats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
}
