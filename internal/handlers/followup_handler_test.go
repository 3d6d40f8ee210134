package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpHandler_Create(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/followups", models.CreateFollowUpRequest{
		CustomerName: "Acme Traders",
		Date:         "2026-08-28",
		Time:         "11:30",
		Type:         "call",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.NotZero(t, body["id"])
	assert.Equal(t, models.FollowUpPending, body["status"])
	assert.Equal(t, false, body["reminder_sent"])
}

func TestFollowUpHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"date":"2026-08-28"}`},
		{"missing date", `{"customer_name":"Acme"}`},
		{"bad date format", `{"customer_name":"Acme","date":"28-08-2026"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupHandlerEnv(t)

			w := env.doRaw(t, http.MethodPost, "/api/followups", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestFollowUpHandler_RunReminders_Forced(t *testing.T) {
	env := setupHandlerEnv(t)

	require.NoError(t, env.chatRepo.Create(models.NewChat("12345", "Sales")))
	require.NoError(t, env.followUpRepo.Create(&models.FollowUp{
		CustomerName: "Acme Traders",
		Date:         time.Now().Format("2006-01-02"),
		Time:         "11:30",
		Status:       models.FollowUpPending,
	}))

	w := env.doJSON(t, http.MethodPost, "/api/jobs/followup-reminders?force=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["followups"])
	assert.Equal(t, float64(1), body["reminded"])
	assert.Equal(t, float64(1), body["messages_sent"])

	require.Len(t, env.api.sent, 1)
	assert.Contains(t, env.api.sent[0], "Acme Traders")
}

func TestFollowUpHandler_RunReminders_RespectsHourGate(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/jobs/followup-reminders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	if time.Now().Hour() == 10 {
		assert.Equal(t, false, body["skipped"])
	} else {
		assert.Equal(t, true, body["skipped"])
	}
}
