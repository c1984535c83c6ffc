// Package gateway binds this service to the chat-platform gateway sidecar.
// The sidecar owns the platform connection; this package only speaks its
// REST interface and relays its event callbacks.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"linktrack-go/internal/config"
	"linktrack-go/internal/platform"
)

// Client implements platform.ChatService against the gateway sidecar API
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a gateway Client
func NewClient(cfg *config.GatewayConfig, token string) *Client {
	return &Client{
		baseURL: cfg.URL,
		token:   token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

// FetchMessage fully hydrates a message
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	var msg platform.Message
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// React applies an emoji reaction to a message
func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions", channelID, messageID)
	return c.do(ctx, http.MethodPost, path, map[string]string{"emoji": emoji}, nil)
}

// DeleteMessage removes a message from its channel
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// FetchMember resolves a guild member with roles and permissions
func (c *Client) FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	var member platform.Member
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// SendDM opens a DM channel with the user and sends content
func (c *Client) SendDM(ctx context.Context, userID, content string) (*platform.Message, error) {
	var msg platform.Message
	path := fmt.Sprintf("/users/%s/dm", userID)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Reply sends an ephemeral reply to an interaction
func (c *Client) Reply(ctx context.Context, interaction *platform.Interaction, content string) error {
	path := fmt.Sprintf("/interactions/%s/reply", interaction.ID)
	return c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, nil)
}

// Defer acknowledges an interaction ahead of a slow reply
func (c *Client) Defer(ctx context.Context, interaction *platform.Interaction) error {
	path := fmt.Sprintf("/interactions/%s/defer", interaction.ID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// GuildsForUser lists ids of guilds shared between the bot and the user
func (c *Client) GuildsForUser(ctx context.Context, userID string) ([]string, error) {
	var guilds []string
	path := fmt.Sprintf("/users/%s/guilds", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}
