package rest

import "time"

// Authentication types

// RegisterRequest is the request body for account creation.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the bearer token returned after authentication.
type TokenResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo identifies a marketplace user.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message history types

// MessageInfo is a single persisted message.
type MessageInfo struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	Sender    UserInfo  `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
	Limit int `json:"limit"`
}

// MessagesResponse is one page of a conversation's history.
type MessagesResponse struct {
	Messages   []MessageInfo `json:"messages"`
	Pagination Pagination    `json:"pagination"`
}

// LastMessage summarizes the newest message of a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	Sender    UserInfo  `json:"sender"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationSummary is one entry of the conversation list.
type ConversationSummary struct {
	Match       MatchInfo    `json:"match"`
	LastMessage *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount int          `json:"unreadCount"`
}

// ConversationsResponse lists the user's conversations.
type ConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// Match types

// MatchInfo is a pairing between two users around a skill.
type MatchInfo struct {
	ID        string    `json:"id"`
	Requester UserInfo  `json:"requester"`
	Receiver  UserInfo  `json:"receiver"`
	Skill     string    `json:"skill"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// MatchesResponse lists matches.
type MatchesResponse struct {
	Matches []MatchInfo `json:"matches"`
}

// RespondRequest accepts or declines a match request.
type RespondRequest struct {
	Action string `json:"action"` // "accept" or "decline"
}

// ScheduleSessionRequest books a session inside a match.
type ScheduleSessionRequest struct {
	MatchID  string    `json:"matchId"`
	StartsAt time.Time `json:"startsAt"`
	Duration int       `json:"durationMinutes"`
	Notes    string    `json:"notes,omitempty"`
}

// SessionInfo is a scheduled session.
type SessionInfo struct {
	ID       string    `json:"id"`
	MatchID  string    `json:"matchId"`
	StartsAt time.Time `json:"startsAt"`
	Duration int       `json:"durationMinutes"`
	Status   string    `json:"status"`
}

// Profile and skills types

// SkillInfo is one advertised skill.
type SkillInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// ProfileInfo is the authenticated user's profile.
type ProfileInfo struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Bio       string      `json:"bio"`
	Skills    []SkillInfo `json:"skills"`
}

// UpdateProfileRequest patches the profile.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// UpdateSettingsRequest patches account settings.
type UpdateSettingsRequest struct {
	EmailNotifications *bool  `json:"emailNotifications,omitempty"`
	Theme              string `json:"theme,omitempty"`
}

// Notification types

// NotificationInfo is one stored notification.
type NotificationInfo struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationsResponse lists notifications.
type NotificationsResponse struct {
	Notifications []NotificationInfo `json:"notifications"`
}

// Wallet types

// BalanceInfo is the user's token balance.
type BalanceInfo struct {
	Tokens int64 `json:"tokens"`
}

// TransactionInfo is one token transfer.
type TransactionInfo struct {
	ID        string    `json:"id"`
	From      UserInfo  `json:"from"`
	To        UserInfo  `json:"to"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// TransactionsResponse lists token transfers.
type TransactionsResponse struct {
	Transactions []TransactionInfo `json:"transactions"`
}

// ErrorResponse is the API's error body.
type ErrorResponse struct {
	Message string `json:"message"`
}
