package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"answerxtractor/internal/prompt"
	"answerxtractor/internal/shaper"
	"answerxtractor/internal/util"
	"answerxtractor/pkg/ai"
	"answerxtractor/pkg/domain"
	"answerxtractor/pkg/store"
)

// Exchange is one question and its answer.
type Exchange struct {
	UserMessage domain.Message `json:"user_message"`
	AIMessage   domain.Message `json:"ai_message"`
}

// CreateChat opens a chat over one of the user's documents.
func (a *App) CreateChat(user domain.User, documentID int64) (domain.Chat, error) {
	if documentID <= 0 {
		return domain.Chat{}, ErrDocumentIDRequired
	}
	chat := domain.Chat{UserID: user.ID, DocumentID: documentID, CreatedAt: a.now()}
	if err := a.store.CreateChat(&chat); err != nil {
		if errors.Is(err, store.ErrDocumentNotOwned) {
			return domain.Chat{}, ErrDocumentNotFound
		}
		return domain.Chat{}, err
	}
	return chat, nil
}

// ListChats returns the user's chats newest first with previews.
func (a *App) ListChats(user domain.User) ([]domain.ChatSummary, error) {
	return a.store.ListChats(user.ID)
}

// ChatMessages returns a chat's messages in conversation order.
func (a *App) ChatMessages(user domain.User, chatID int64) ([]domain.Message, error) {
	if _, ok, err := a.store.GetChat(user.ID, chatID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrChatNotFound
	}
	return a.store.ListMessages(chatID, 0)
}

// DeleteChat removes a chat and its messages.
func (a *App) DeleteChat(user domain.User, chatID int64) error {
	ok, err := a.store.DeleteChat(user.ID, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrChatNotFound
	}
	return nil
}

// SendMessage stores the user's question, asks the model and stores the answer.
// With noContext the document text is left out of the prompt entirely.
// If generation fails the user message stays persisted and no answer is stored.
func (a *App) SendMessage(ctx context.Context, user domain.User, chatID int64, text string, noContext bool) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, ErrMessageRequired
	}
	logger := util.LoggerFromContext(ctx).With("chat_id", chatID, "no_context", noContext)

	chat, ok, err := a.store.GetChat(user.ID, chatID)
	if err != nil {
		return Exchange{}, err
	}
	if !ok {
		return Exchange{}, ErrChatNotFound
	}
	doc, ok, err := a.store.GetDocument(user.ID, chat.DocumentID)
	if err != nil {
		return Exchange{}, err
	}
	if !ok {
		return Exchange{}, ErrDocumentNotFound
	}
	history, err := a.history(chatID)
	if err != nil {
		return Exchange{}, err
	}
	logger.Debug("chat message received", "history", len(history))

	userMsg := domain.Message{ChatID: chatID, Sender: domain.SenderUser, Text: text, Timestamp: a.now()}
	if err := a.store.AppendMessage(&userMsg); err != nil {
		return Exchange{}, err
	}
	logger.Debug("user message persisted", "message_id", userMsg.ID)

	p := prompt.ForChat(doc.ExtractedText, text, noContext)
	genCtx, cancel := context.WithTimeout(ctx, a.generationTimeout)
	defer cancel()
	logger.Debug("generating answer", "timeout", a.generationTimeout)
	raw, err := a.generator.GenerateText(genCtx, p.Request(history))
	if err == nil {
		raw, err = shaper.Answer(raw)
	}
	if err != nil {
		logger.Warn("generation failed", "message_id", userMsg.ID, "err", err)
		return Exchange{UserMessage: userMsg}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	aiMsg := domain.Message{ChatID: chatID, Sender: domain.SenderAI, Text: raw, Timestamp: a.now()}
	if err := a.store.AppendMessage(&aiMsg); err != nil {
		return Exchange{UserMessage: userMsg}, err
	}
	logger.Debug("answer persisted", "message_id", aiMsg.ID)
	return Exchange{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

func (a *App) history(chatID int64) ([]ai.Message, error) {
	if a.historyLimit <= 0 {
		return nil, nil
	}
	prior, err := a.store.RecentMessages(chatID, a.historyLimit)
	if err != nil {
		return nil, err
	}
	out := make([]ai.Message, 0, len(prior))
	for _, m := range prior {
		role := ai.RoleUser
		if m.Sender == domain.SenderAI {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Content: m.Text})
	}
	return out, nil
}
