// Package telegram is a minimal typed client for the Telegram Bot API,
// covering only the methods the bot relay needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// SecretTokenHeader is the header Telegram sends on webhook calls when a
// secret token was registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// ErrNoToken indicates the client was constructed without a bot token.
var ErrNoToken = errors.New("telegram: bot token is not configured")

// Update is one inbound event delivered by Telegram.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
}

// IDString returns the chat id in the string form the rest of the system
// stores it in.
func (c Chat) IDString() string {
	return strconv.FormatInt(c.ID, 10)
}

// BotCommand is one entry of the command list registered with setMyCommands.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// apiResponse is the common Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the given bot token. baseURL overrides the
// production API host; pass "" for the default.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// call performs one Bot API method call and decodes the envelope.
func (c *Client) call(ctx context.Context, method string, args interface{}) (json.RawMessage, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to encode %s request: %w", method, err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("telegram: failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = resp.Status
		}
		return nil, fmt.Errorf("telegram: %s returned not ok: %s", method, desc)
	}

	return envelope.Result, nil
}

// SendMessage delivers text to a chat. Markdown markup is enabled, matching
// the formatting the notification templates emit.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	_, err := c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	return err
}

// GetUpdates fetches updates with update_id > offset-1 (i.e. pass
// last_update_id+1 as offset).
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", map[string]interface{}{
		"offset":  offset,
		"timeout": 0,
	})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("telegram: failed to decode updates: %w", err)
	}
	return updates, nil
}

// SetWebhook registers url as the webhook endpoint with the given secret
// token.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	_, err := c.call(ctx, "setWebhook", map[string]string{
		"url":          url,
		"secret_token": secret,
	})
	return err
}

// DeleteWebhook unregisters the webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", map[string]string{})
	return err
}

// SetMyCommands registers the bot's command list.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	_, err := c.call(ctx, "setMyCommands", map[string]interface{}{
		"commands": commands,
	})
	return err
}
