package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type DocumentModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	UserID        int64  `gorm:"not null;index"`
	Filename      string `gorm:"size:255;not null"`
	Kind          string `gorm:"size:16"`
	ExtractedText string `gorm:"type:text;not null"`
	SizeBytes     int64
	StorageKey    string
	UploadedAt    time.Time `gorm:"not null;index"`
}

type ChatModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     int64     `gorm:"not null;index"`
	DocumentID int64     `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

type MessageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"not null;index:idx_message_chat_ts,priority:1"`
	Sender    string    `gorm:"size:10;not null"`
	Text      string    `gorm:"column:body;type:text;not null"`
	Timestamp time.Time `gorm:"column:sent_at;not null;index:idx_message_chat_ts,priority:2"`
}

type StudyMaterialModel struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	UserID     int64          `gorm:"not null;index"`
	DocumentID int64          `gorm:"not null;index"`
	Kind       string         `gorm:"size:16;not null"`
	Payload    datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"not null"`
}

func (UserModel) TableName() string          { return "users" }
func (DocumentModel) TableName() string      { return "documents" }
func (ChatModel) TableName() string          { return "chats" }
func (MessageModel) TableName() string       { return "messages" }
func (StudyMaterialModel) TableName() string { return "study_materials" }
