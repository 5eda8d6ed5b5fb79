// Package models holds the wire types shared by the service clients,
// the profile cache and the chat engine.
package models

import "time"

// Profile is a user's profile as served by the profile service. The
// client holds read-through, possibly stale copies; mutation happens
// only through ProfileClient.UpdateProfile.
type Profile struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Lastname          string     `json:"lastname"`
	Email             string     `json:"email,omitempty"`
	Birthday          *time.Time `json:"birthday,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// DisplayName returns the best human-readable name for the profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.UserID
}

// ProfileUpdate is the partial record sent to PATCH {profile}/{user_id}.
// Nil fields are omitted and left untouched server-side.
type ProfileUpdate struct {
	Name              *string    `json:"name,omitempty"`
	Lastname          *string    `json:"lastname,omitempty"`
	Birthday          *time.Time `json:"birthday,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
}

// Message is a chat message as delivered by the chat service, over
// both the history endpoint and the live channel.
type Message struct {
	ID        string    `json:"id,omitempty"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Identity returns the dedup key for the message. The server assigns
// an object id; when it is absent the key falls back to the fields
// that make a delivery unique.
func (m Message) Identity() string {
	if m.ID != "" {
		return m.ID
	}
	return m.SenderID + "|" + m.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + m.Content
}

// OutboundMessage is what the client writes to the live channel.
// The timestamp is server-assigned and therefore omitted.
type OutboundMessage struct {
	Content  string `json:"content"`
	SenderID string `json:"sender_id"`
	ChatID   string `json:"chat_id"`
}

// EnrichedMessage is a Message plus sender display data resolved
// through the profile cache. The enrichment fields are derived, never
// authoritative.
type EnrichedMessage struct {
	Message
	SenderName           string
	SenderProfilePicture string
}

// Chat is a chat reference as returned by the chat service.
type Chat struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
}

// User is the auth service's view of an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// AuthSession is the auth service's login response.
type AuthSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ID          string `json:"id"`
	Username    string `json:"username"`
}
