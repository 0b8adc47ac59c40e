package domain

import (
	"encoding/json"
	"time"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// StudyKind names a study-material generator.
type StudyKind string

const (
	StudyFlashcards StudyKind = "flashcards"
	StudyQuiz       StudyKind = "quiz"
	StudyMindmap    StudyKind = "mindmap"
)

// Valid reports whether k is one of the supported study kinds.
func (k StudyKind) Valid() bool {
	switch k {
	case StudyFlashcards, StudyQuiz, StudyMindmap:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Document struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	Filename      string    `json:"filename"`
	Kind          string    `json:"kind,omitempty"`
	ExtractedText string    `json:"-"`
	SizeBytes     int64     `json:"size_bytes,omitempty"`
	StorageKey    string    `json:"-"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

type Chat struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	DocumentID int64     `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatSummary is a chat list row with its derived preview.
type ChatSummary struct {
	ID           int64     `json:"id"`
	DocumentID   int64     `json:"document_id"`
	DocumentName string    `json:"document_name"`
	CreatedAt    time.Time `json:"created_at"`
	Preview      string    `json:"preview"`
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"-"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type StudyMaterial struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"-"`
	DocumentID int64           `json:"document_id"`
	Kind       StudyKind       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}
