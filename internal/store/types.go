package store

import "time"

// ContentRecord is a generated piece of marketing content kept in the library.
type ContentRecord struct {
	ID        string
	Kind      string // content type id, e.g. "blog_article"
	Topic     string
	Title     string
	Body      string
	Provider  string // provider that generated it
	Metadata  map[string]string
	CreatedAt time.Time
}

// ChatSession records a conversation for later review.
type ChatSession struct {
	ID        string
	Provider  string
	Module    string // dashboard module the chat was scoped to, if any
	Turns     int
	StartedAt time.Time
	UpdatedAt time.Time
}

// Storage defines the interface for persistence
type Storage interface {
	// Content Library
	SaveContent(rec *ContentRecord) error
	GetContent(id string) (*ContentRecord, error)
	// ListContent filters by a glob over "kind/topic-slug"; empty pattern lists everything.
	ListContent(pattern string) ([]*ContentRecord, error)
	DeleteContent(id string) error

	// Chat Session History
	SaveChatSession(sess *ChatSession) error
	ListChatSessions() ([]*ChatSession, error)

	// Configuration Management
	SetConfig(key, value string) error
	GetConfig(key string) (string, error)

	// Secrets are configuration values stored encrypted at rest.
	SetSecret(key, value string) error
	GetSecret(key string) (string, error)

	Close() error
}
