package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/services"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubTelegramAPI is a provider stub for handler tests.
type stubTelegramAPI struct {
	sent          []string
	sendErr       error
	updates       []telegram.Update
	updatesErr    error
	setWebhookErr error
	deleteErr     error
	commandsErr   error
}

func (s *stubTelegramAPI) SendMessage(_ context.Context, _, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *stubTelegramAPI) GetUpdates(_ context.Context, _ int64) ([]telegram.Update, error) {
	return s.updates, s.updatesErr
}

func (s *stubTelegramAPI) SetWebhook(_ context.Context, _, _ string) error {
	return s.setWebhookErr
}

func (s *stubTelegramAPI) DeleteWebhook(_ context.Context) error {
	return s.deleteErr
}

func (s *stubTelegramAPI) SetMyCommands(_ context.Context, _ []telegram.BotCommand) error {
	return s.commandsErr
}

// handlerEnv wires the full handler stack over an in-memory database.
type handlerEnv struct {
	engine       *gin.Engine
	api          *stubTelegramAPI
	chatRepo     db.ChatRepository
	logRepo      db.MessageLogRepository
	settingsRepo db.SettingsRepository
	followUpRepo db.FollowUpRepository
	customerRepo db.CustomerRepository
	chatService  *services.ChatService
	adminService *services.BotAdminService
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := db.SetupTestDB(t)
	chatRepo := db.NewChatRepository(database)
	logRepo := db.NewMessageLogRepository(database)
	settingsRepo := db.NewSettingsRepository(database)
	followUpRepo := db.NewFollowUpRepository(database)
	customerRepo := db.NewCustomerRepository(database)
	api := &stubTelegramAPI{}

	router := services.NewCommandRouter(customerRepo, logRepo, api)
	updateService := services.NewUpdateService(chatRepo, logRepo, settingsRepo, router, api)
	notifier := services.NewNotifierService(chatRepo, logRepo, api)
	adminService := services.NewBotAdminService(settingsRepo, api)
	chatService := services.NewChatService(chatRepo)
	reminderService := services.NewReminderService(followUpRepo, notifier, services.DefaultReminderHour)

	webhookHandler := NewWebhookHandler(updateService, settingsRepo)
	botAdminHandler := NewBotAdminHandler(adminService, updateService)
	chatHandler := NewChatHandler(chatService)
	notifyHandler := NewNotifyHandler(notifier)
	followUpHandler := NewFollowUpHandler(followUpRepo, reminderService)

	engine := gin.New()
	engine.POST("/webhook/telegram", webhookHandler.Handle)

	api2 := engine.Group("/api")
	api2.POST("/notify", notifyHandler.Notify)
	api2.POST("/bot/webhook", botAdminHandler.SetWebhook)
	api2.DELETE("/bot/webhook", botAdminHandler.DeleteWebhook)
	api2.POST("/bot/commands", botAdminHandler.SetCommands)
	api2.PUT("/bot/mode", botAdminHandler.SetMode)
	api2.POST("/bot/poll", botAdminHandler.Poll)
	api2.POST("/chats", chatHandler.Authorize)
	api2.GET("/chats", chatHandler.List)
	api2.PUT("/chats/:id/active", chatHandler.SetActive)
	api2.PUT("/chats/:id/preferences", chatHandler.UpdatePreference)
	api2.POST("/followups", followUpHandler.Create)
	api2.POST("/jobs/followup-reminders", followUpHandler.RunReminders)

	return &handlerEnv{
		engine:       engine,
		api:          api,
		chatRepo:     chatRepo,
		logRepo:      logRepo,
		settingsRepo: settingsRepo,
		followUpRepo: followUpRepo,
		customerRepo: customerRepo,
		chatService:  chatService,
		adminService: adminService,
	}
}

// doJSON performs a request with a JSON body and returns the recorder.
func (e *handlerEnv) doJSON(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) doRaw(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
