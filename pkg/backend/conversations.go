package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// HistoryEntry is one message of a stored conversation.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is the stored history of a conversation.
type HistoryResponse struct {
	History          []HistoryEntry `json:"history"`
	ConversationType string         `json:"conversation_type,omitempty"`
}

// NewConversationID returns a fresh 16 character conversation ID.
func NewConversationID() string {
	return uuid.NewString()[:16]
}

// History fetches the stored messages of a conversation.
func (c *Client) History(ctx context.Context, convID string) (*HistoryResponse, error) {
	var out HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(convID)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation registers a conversation for a user.
func (c *Client) CreateConversation(ctx context.Context, userID, convID string) error {
	path := "/api/chat/create_conv/" + url.PathEscape(userID) + "?" + url.Values{"conv_id": {convID}}.Encode()
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// UpdateTitle sets a conversation's title.
func (c *Client) UpdateTitle(ctx context.Context, convID, title string) error {
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.do(ctx, http.MethodPut, "/api/chat/"+url.PathEscape(convID)+"/title", body, nil)
}

// DeleteConversation removes a conversation and its history.
func (c *Client) DeleteConversation(ctx context.Context, convID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/"+url.PathEscape(convID), nil, nil)
}
