package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"answerxtractor/internal/app"
	"answerxtractor/internal/util"
)

// statusFor maps an application error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrValidation), errors.Is(err, app.ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError sends the stable message for err. Causes stay in the log.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := app.Message(err)
	if msg == "" {
		msg = "internal error"
	}
	logger := util.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "timeout", errors.Is(err, context.DeadlineExceeded), "err", err)
	} else {
		logger.Debug("request rejected", "status", status, "err", err)
	}
	writeError(w, status, msg)
}

// validationMessage turns a decode or validator failure into a client message.
// fallback is used for any field without a more specific message.
func validationMessage(err error, fallback string) string {
	if errors.Is(err, errInvalidJSON) {
		return errInvalidJSON.Error()
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Field() == "Email" && fe.Tag() == "email" {
			return "Invalid email address"
		}
	}
	return fallback
}
