package server

import (
	"net/http"

	"answerxtractor/internal/app"
	"answerxtractor/pkg/domain"
)

type createChatRequest struct {
	DocumentID int64 `json:"document_id" validate:"required,gt=0"`
}

type sendMessageRequest struct {
	Message   string `json:"message" validate:"required"`
	NoContext bool   `json:"no_context"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request, user domain.User) {
	chats, err := s.app.ListChats(user)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req createChatRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, app.ErrDocumentIDRequired.Error()))
		return
	}
	chat, err := s.app.CreateChat(user, req.DocumentID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrChatNotFound.Error())
		return
	}
	msgs, err := s.app.ChatMessages(user, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrChatNotFound.Error())
		return
	}
	var req sendMessageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, app.ErrMessageRequired.Error()))
		return
	}
	exchange, err := s.app.SendMessage(r.Context(), user, id, req.Message, req.NoContext)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exchange)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrChatNotFound.Error())
		return
	}
	if err := s.app.DeleteChat(user, id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}
