package store

import (
	"context"
	"errors"
	"time"

	"answerxtractor/pkg/domain"
)

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already exists")

// Store defines persistence operations for users, documents, chats and messages.
// Every document/chat lookup is scoped by the owning user; rows owned by
// someone else are reported exactly like missing rows.
type Store interface {
	Ping(ctx context.Context) error

	// users
	CreateUser(u *domain.User) error
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id int64) (domain.User, bool, error)
	DeleteUser(id int64) (bool, error)

	// documents
	CreateDocument(d *domain.Document) error
	ListDocuments(userID int64) ([]domain.Document, error)
	GetDocument(userID, id int64) (domain.Document, bool, error)
	DeleteDocument(userID, id int64) (bool, error)

	// chats
	CreateChat(c *domain.Chat) error
	ListChats(userID int64) ([]domain.ChatSummary, error)
	GetChat(userID, id int64) (domain.Chat, bool, error)
	DeleteChat(userID, id int64) (bool, error)

	// messages
	AppendMessage(m *domain.Message) error
	ListMessages(chatID int64, limit int) ([]domain.Message, error)
	RecentMessages(chatID int64, limit int) ([]domain.Message, error)

	// study materials
	SaveStudyMaterial(m *domain.StudyMaterial) error
	LatestStudyMaterial(userID, documentID int64, kind domain.StudyKind) (domain.StudyMaterial, bool, error)
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(userID int64) (string, error)
	GetUserIDByToken(token string) (int64, bool, error)
	DeleteSession(token string) error
}

// TokenRevoker tracks revoked token ids until expiry.
type TokenRevoker interface {
	Revoke(tokenID string, ttl time.Duration) error
	IsRevoked(tokenID string) (bool, error)
}
