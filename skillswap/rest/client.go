package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	ae, ok := err.(*APIError)
	return ok && ae.Status == http.StatusUnauthorized
}

// Client provides REST API access to the SkillSwap server. A bearer
// credential, once set, is attached to every request.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	onUnauthorized func()
}

// NewClient creates a new REST API client. baseURL should be the base
// URL of the API, e.g. "http://localhost:5000/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets the bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// OnUnauthorized registers the hook invoked once per 401 response.
// Session teardown (dropping the stored credential, flipping auth state
// to logged-out) belongs to this hook, not to individual callers.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Authentication endpoints

// Register creates a new account and returns a bearer token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates with existing credentials and returns a bearer
// token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Message endpoints

// GetMessages retrieves one page of a conversation's message history.
func (c *Client) GetMessages(ctx context.Context, matchID string, page int) (*MessagesResponse, error) {
	path := fmt.Sprintf("/messages/%s?page=%d", url.PathEscape(matchID), page)
	var resp MessagesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations returns the conversation list with last messages
// and unread counts.
func (c *Client) ListConversations(ctx context.Context) (*ConversationsResponse, error) {
	var resp ConversationsResponse
	if err := c.get(ctx, "/messages/conversations/list", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkMessageRead marks one message as read.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/messages/%s/read", url.PathEscape(messageID))
	return c.put(ctx, path, nil, nil)
}

// Match endpoints

// ListMatches returns the user's matches, optionally filtered by
// status ("pending", "accepted", ...).
func (c *Client) ListMatches(ctx context.Context, status string) (*MatchesResponse, error) {
	path := "/matches"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp MatchesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RespondToMatch accepts or declines a match request.
func (c *Client) RespondToMatch(ctx context.Context, matchID string, req RespondRequest) (*MatchInfo, error) {
	path := fmt.Sprintf("/matches/%s/respond", url.PathEscape(matchID))
	var resp MatchInfo
	if err := c.put(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleSession books a session inside an accepted match.
func (c *Client) ScheduleSession(ctx context.Context, req ScheduleSessionRequest) (*SessionInfo, error) {
	var resp SessionInfo
	if err := c.post(ctx, "/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile, skills, settings endpoints

// GetProfile returns the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*ProfileInfo, error) {
	var resp ProfileInfo
	if err := c.get(ctx, "/users/profile", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile patches the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileInfo, error) {
	var resp ProfileInfo
	if err := c.put(ctx, "/users/profile", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSkills returns the skill catalog.
func (c *Client) ListSkills(ctx context.Context) ([]SkillInfo, error) {
	var resp []SkillInfo
	if err := c.get(ctx, "/skills", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateSettings patches account settings.
func (c *Client) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) error {
	return c.put(ctx, "/users/settings", req, nil)
}

// Notification endpoints

// ListNotifications returns stored notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) (*NotificationsResponse, error) {
	var resp NotificationsResponse
	if err := c.get(ctx, "/notifications", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/notifications/%s/read", url.PathEscape(id))
	return c.put(ctx, path, nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := "/notifications/" + url.PathEscape(id)
	return c.delete(ctx, path)
}

// Wallet endpoints

// GetBalance returns the user's token balance.
func (c *Client) GetBalance(ctx context.Context) (*BalanceInfo, error) {
	var resp BalanceInfo
	if err := c.get(ctx, "/transactions/balance", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTransactions returns the user's token transfers.
func (c *Client) ListTransactions(ctx context.Context) (*TransactionsResponse, error) {
	var resp TransactionsResponse
	if err := c.get(ctx, "/transactions", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Helper methods

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.send(ctx, "POST", path, body, dest)
}

func (c *Client) put(ctx context.Context, path string, body, dest any) error {
	return c.send(ctx, "PUT", path, body, dest)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.send(ctx, "DELETE", path, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.send(ctx, "GET", path, nil, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return &APIError{Status: resp.StatusCode, Message: errResp.Message}
		}
		return &APIError{Status: resp.StatusCode, Message: string(body)}
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
