package server

import (
	"net/http"

	"answerxtractor/internal/app"
	"answerxtractor/pkg/domain"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		return
	}
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, app.ErrEmailAndPasswordRequired.Error()))
		return
	}
	user, err := s.app.Register(req.Email, req.Password)
	if err != nil {
		s.audit(r, "register", "failure", "reason", app.Message(err))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    user,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, app.ErrEmailAndPasswordRequired.Error()))
		return
	}
	token, user, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "login", "failure", "reason", app.Message(err))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.ID, "email": user.Email},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token is missing")
		return
	}
	if err := s.app.Logout(token); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user domain.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.DeleteAccount(r.Context(), user); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "account_deleted", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
