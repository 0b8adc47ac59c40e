package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"answerxtractor/pkg/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const migrateLockID int64 = 51825307

// GormStore implements Store using GORM over Postgres or SQLite.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database named by dsn and runs auto-migrations.
// postgres:// and postgresql:// DSNs use Postgres; sqlite://, file: and
// :memory: use SQLite.
func NewGormStore(dsn string) (*GormStore, error) {
	dialector, postgresDSN, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if !postgresDSN {
		// SQLite allows a single writer; one connection also keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	migrate := func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &DocumentModel{}, &ChatModel{}, &MessageModel{}, &StudyMaterialModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	if postgresDSN {
		err = withMigrationLock(db, migrate)
	} else {
		err = migrate(db)
	}
	if err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, false, errors.New("database dsn required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), true, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), false, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqlite.Open(dsn), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported database dsn scheme: %q", dsn)
	}
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser inserts a user and fills in its ID.
func (s *GormStore) CreateUser(u *domain.User) error {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	model := userToModel(*u)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	*u = userFromModel(model)
	return nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id int64) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// DeleteUser removes the user with every document, chat, message and study
// material they own.
func (s *GormStore) DeleteUser(id int64) (bool, error) {
	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var chatIDs []int64
		if err := tx.Model(&ChatModel{}).Where("user_id = ?", id).Pluck("id", &chatIDs).Error; err != nil {
			return err
		}
		if err := deleteChatMessages(tx, chatIDs); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ChatModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&StudyMaterialModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&DocumentModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&UserModel{})
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	return found, err
}

// CreateDocument stores a document and fills in its ID.
func (s *GormStore) CreateDocument(d *domain.Document) error {
	model := documentToModel(*d)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*d = documentFromModel(model)
	return nil
}

// ListDocuments returns a user's documents newest first, without extracted text.
func (s *GormStore) ListDocuments(userID int64) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Omit("extracted_text").
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// GetDocument retrieves a document owned by userID.
func (s *GormStore) GetDocument(userID, id int64) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// DeleteDocument removes a document together with its chats, their messages
// and its study materials.
func (s *GormStore) DeleteDocument(userID, id int64) (bool, error) {
	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&DocumentModel{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		found = true
		var chatIDs []int64
		if err := tx.Model(&ChatModel{}).Where("document_id = ? AND user_id = ?", id, userID).Pluck("id", &chatIDs).Error; err != nil {
			return err
		}
		if err := deleteChatMessages(tx, chatIDs); err != nil {
			return err
		}
		if err := tx.Where("document_id = ? AND user_id = ?", id, userID).Delete(&ChatModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ? AND user_id = ?", id, userID).Delete(&StudyMaterialModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&DocumentModel{}).Error
	})
	return found, err
}

// CreateChat records a chat. The referenced document must belong to the same
// user; otherwise ErrDocumentNotOwned is returned.
func (s *GormStore) CreateChat(c *domain.Chat) error {
	model := chatToModel(*c)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&DocumentModel{}).Where("id = ? AND user_id = ?", c.DocumentID, c.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrDocumentNotOwned
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return err
	}
	*c = chatFromModel(model)
	return nil
}

type chatRow struct {
	ID           int64
	DocumentID   int64
	DocumentName string
	CreatedAt    time.Time
}

type firstMessageRow struct {
	ChatID int64
	Text   string
}

// ListChats returns a user's chats newest first with document name and preview.
func (s *GormStore) ListChats(userID int64) ([]domain.ChatSummary, error) {
	var rows []chatRow
	if err := s.db.Table("chats").
		Select("chats.id, chats.document_id, documents.filename AS document_name, chats.created_at").
		Joins("JOIN documents ON documents.id = chats.document_id").
		Where("chats.user_id = ?", userID).
		Order("chats.created_at DESC").
		Order("chats.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.ChatSummary{}, nil
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	// One row per chat: the user message with no earlier (sent_at, id).
	var msgs []firstMessageRow
	if err := s.db.Table("messages AS m").
		Select("m.chat_id, m.body AS text").
		Where("m.chat_id IN ? AND m.sender = ?", ids, string(domain.SenderUser)).
		Where(`NOT EXISTS (SELECT 1 FROM messages e WHERE e.chat_id = m.chat_id AND e.sender = m.sender
			AND (e.sent_at < m.sent_at OR (e.sent_at = m.sent_at AND e.id < m.id)))`).
		Scan(&msgs).Error; err != nil {
		return nil, err
	}
	first := make(map[int64]string, len(msgs))
	for _, m := range msgs {
		first[m.ChatID] = m.Text
	}
	res := make([]domain.ChatSummary, 0, len(rows))
	for _, r := range rows {
		res = append(res, domain.ChatSummary{
			ID:           r.ID,
			DocumentID:   r.DocumentID,
			DocumentName: r.DocumentName,
			CreatedAt:    r.CreatedAt,
			Preview:      domain.Preview(first[r.ID]),
		})
	}
	return res, nil
}

// GetChat returns one chat owned by userID.
func (s *GormStore) GetChat(userID, id int64) (domain.Chat, bool, error) {
	var model ChatModel
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Chat{}, false, nil
		}
		return domain.Chat{}, false, err
	}
	return chatFromModel(model), true, nil
}

// DeleteChat removes a chat and its messages.
func (s *GormStore) DeleteChat(userID, id int64) (bool, error) {
	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ChatModel{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		found = true
		if err := tx.Where("chat_id = ?", id).Delete(&MessageModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&ChatModel{}).Error
	})
	return found, err
}

// AppendMessage records a message and fills in its ID.
func (s *GormStore) AppendMessage(m *domain.Message) error {
	model := messageToModel(*m)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*m = messageFromModel(model)
	return nil
}

// ListMessages returns the first limit messages of a chat in order; limit<=0 returns all.
func (s *GormStore) ListMessages(chatID int64, limit int) ([]domain.Message, error) {
	query := s.db.Where("chat_id = ?", chatID).
		Order("sent_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// RecentMessages returns the last limit messages of a chat (newest first, then reversed to chronological).
func (s *GormStore) RecentMessages(chatID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	var models []MessageModel
	if err := s.db.Where("chat_id = ?", chatID).
		Order("sent_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		msgs = append(msgs, messageFromModel(models[i]))
	}
	return msgs, nil
}

// SaveStudyMaterial persists a generated study payload.
func (s *GormStore) SaveStudyMaterial(m *domain.StudyMaterial) error {
	model := studyMaterialToModel(*m)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*m = studyMaterialFromModel(model)
	return nil
}

// LatestStudyMaterial returns the newest saved payload for a document and kind.
func (s *GormStore) LatestStudyMaterial(userID, documentID int64, kind domain.StudyKind) (domain.StudyMaterial, bool, error) {
	var model StudyMaterialModel
	if err := s.db.Where("user_id = ? AND document_id = ? AND kind = ?", userID, documentID, string(kind)).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StudyMaterial{}, false, nil
		}
		return domain.StudyMaterial{}, false, err
	}
	return studyMaterialFromModel(model), true, nil
}

func deleteChatMessages(tx *gorm.DB, chatIDs []int64) error {
	if len(chatIDs) == 0 {
		return nil
	}
	return tx.Where("chat_id IN ?", chatIDs).Delete(&MessageModel{}).Error
}

// ErrDocumentNotOwned is returned when a chat references a document the user does not own.
var ErrDocumentNotOwned = errors.New("document not found")

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:            d.ID,
		UserID:        d.UserID,
		Filename:      d.Filename,
		Kind:          d.Kind,
		ExtractedText: d.ExtractedText,
		SizeBytes:     d.SizeBytes,
		StorageKey:    d.StorageKey,
		UploadedAt:    d.UploadedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:            m.ID,
		UserID:        m.UserID,
		Filename:      m.Filename,
		Kind:          m.Kind,
		ExtractedText: m.ExtractedText,
		SizeBytes:     m.SizeBytes,
		StorageKey:    m.StorageKey,
		UploadedAt:    m.UploadedAt,
	}
}

func chatToModel(c domain.Chat) ChatModel {
	return ChatModel{
		ID:         c.ID,
		UserID:     c.UserID,
		DocumentID: c.DocumentID,
		CreatedAt:  c.CreatedAt,
	}
}

func chatFromModel(m ChatModel) domain.Chat {
	return domain.Chat{
		ID:         m.ID,
		UserID:     m.UserID,
		DocumentID: m.DocumentID,
		CreatedAt:  m.CreatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Sender:    string(msg.Sender),
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    domain.Sender(m.Sender),
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}

func studyMaterialToModel(m domain.StudyMaterial) StudyMaterialModel {
	return StudyMaterialModel{
		ID:         m.ID,
		UserID:     m.UserID,
		DocumentID: m.DocumentID,
		Kind:       string(m.Kind),
		Payload:    datatypes.JSON(m.Payload),
		CreatedAt:  m.CreatedAt,
	}
}

func studyMaterialFromModel(m StudyMaterialModel) domain.StudyMaterial {
	return domain.StudyMaterial{
		ID:         m.ID,
		UserID:     m.UserID,
		DocumentID: m.DocumentID,
		Kind:       domain.StudyKind(m.Kind),
		Payload:    []byte(m.Payload),
		CreatedAt:  m.CreatedAt,
	}
}
