package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"crm-chat-server/internal/chat"
	"crm-chat-server/internal/models"
)

// Client is a thin HTTP client for the chat REST surface, used by polling
// consumers and the integration tests.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a Client talking to baseURL with the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %d: %s", method, path, res.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// Messages fetches one page of the conversation with another user. Viewing
// marks the caller's unseen messages as seen server-side.
func (c *Client) Messages(ctx context.Context, otherUserID string, page, limit int) (*chat.MessagePage, error) {
	path := fmt.Sprintf("/api/chat/messages/%s?page=%d&limit=%d", url.PathEscape(otherUserID), page, limit)
	var result chat.MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RoomMessages fetches one page of a raw room. Superadmin tokens only.
func (c *Client) RoomMessages(ctx context.Context, roomID string, page, limit int) (*chat.MessagePage, error) {
	path := fmt.Sprintf("/api/chat/messages/room/%s?page=%d&limit=%d", url.PathEscape(roomID), page, limit)
	var result chat.MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Conversations fetches the caller's conversation summaries.
func (c *Client) Conversations(ctx context.Context) ([]chat.ConversationSummary, error) {
	var result []chat.ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/chat/conversations", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Send posts a new message to receiverID.
func (c *Client) Send(ctx context.Context, receiverID, message string, msgType models.MessageType) (*models.Message, error) {
	body := map[string]interface{}{
		"receiverId": receiverID,
		"message":    message,
	}
	if msgType != "" {
		body["messageType"] = msgType
	}
	var result models.Message
	if err := c.do(ctx, http.MethodPost, "/api/chat/send", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkSeen acknowledges the conversation with another user.
func (c *Client) MarkSeen(ctx context.Context, otherUserID string) error {
	return c.do(ctx, http.MethodPut, "/api/chat/mark-seen/"+url.PathEscape(otherUserID), nil, nil)
}

// UnreadCount fetches the caller's global unseen message count.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var result struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/unread-count", nil, &result); err != nil {
		return 0, err
	}
	return result.UnreadCount, nil
}

// Search performs a global body search. Superadmin tokens only.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*chat.MessagePage, error) {
	path := "/api/chat/search?query=" + url.QueryEscape(query) +
		"&page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
	var result chat.MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
