package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"answerxtractor/internal/app"
	"answerxtractor/pkg/domain"
)

// multipartOverhead leaves room for boundaries and headers on top of the file limit.
const multipartOverhead = 1 << 20

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	docs, err := s.app.ListDocuments(user)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, user domain.User) {
	limit := s.app.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, app.ErrFileTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, app.ErrFileRequired.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, app.ErrFileRequired.Error())
		return
	}
	defer file.Close()
	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, app.ErrFileTooLarge.Error())
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	doc, err := s.app.UploadDocument(r.Context(), user, header.Filename, data)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrDocumentNotFound.Error())
		return
	}
	if err := s.app.DeleteDocument(r.Context(), user, id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrDocumentNotFound.Error())
		return
	}
	url, doc, err := s.app.DownloadURL(r.Context(), user, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":      url,
		"filename": doc.Filename,
	})
}

type studyToolRequest struct {
	Type string `json:"type" validate:"required,oneof=flashcards quiz mindmap"`
}

func (s *Server) handleGenerateStudyTool(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrDocumentNotFound.Error())
		return
	}
	var req studyToolRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, app.ErrUnsupportedTool.Error()))
		return
	}
	material, err := s.app.GenerateStudyMaterial(r.Context(), user, id, domain.StudyKind(strings.TrimSpace(req.Type)))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, material.Payload)
}

func (s *Server) handleLatestStudyTool(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, app.ErrDocumentNotFound.Error())
		return
	}
	kind, err := app.ParseStudyKind(r.PathValue("type"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	material, err := s.app.LatestStudyMaterial(user, id, kind)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, material.Payload)
}
